package dto

import "github.com/noah-isme/offday-api/internal/models"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// CreateOffdayRequest payload for submitting a new leave request.
type CreateOffdayRequest struct {
	Subject     string `json:"subject" validate:"required"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required"`
	Description string `json:"description" validate:"required,min=5"`
}

// UpdateOffdayRequest partial update of a pending request. Nil fields are
// left untouched.
type UpdateOffdayRequest struct {
	Subject     *string `json:"subject,omitempty" validate:"omitempty,min=1"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=5"`
}

// DirectorDecisionRequest captures the director's forward/reject decision.
type DirectorDecisionRequest struct {
	Action  models.DecisionAction `json:"action" validate:"required,oneof=forward reject"`
	Message string                `json:"message"`
}

// ChairmanDecisionRequest captures the chairman's accept/reject decision.
// The target fields are optional; when present they must match the request
// being decided. The ledger write is always derived from the request record.
type ChairmanDecisionRequest struct {
	Action      models.DecisionAction `json:"action" validate:"required,oneof=accept reject"`
	Message     string                `json:"message"`
	TargetEmail string                `json:"email" validate:"omitempty,email"`
	Start       string                `json:"start"`
	End         string                `json:"end"`
}

// RequestListQuery mirrors supported listing filters.
type RequestListQuery struct {
	Status string
	Search string
	Page   int
	Limit  int
}
