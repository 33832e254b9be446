package dto

import "github.com/noah-isme/offday-api/internal/models"

// AvailabilityQuery holds the availability projection parameters.
type AvailabilityQuery struct {
	Date   string
	Status string
	Search string
	Page   int
	Limit  int
}

// AvailabilityPage is the cached/paginated availability response body.
type AvailabilityPage struct {
	Teachers   []models.UserAvailability `json:"teachers"`
	TotalItems int                       `json:"total_items"`
	TotalPages int                       `json:"total_pages"`
}
