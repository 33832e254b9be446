package models

import "time"

// LeaveInterval is one approved leave entry on a user's ledger. The ledger is
// append-only: entries are written once on acceptance and never edited. The
// unique request_id key keeps a retried acceptance from appending twice.
type LeaveInterval struct {
	ID        string    `db:"id" json:"id"`
	UserEmail string    `db:"user_email" json:"user_email"`
	RequestID string    `db:"request_id" json:"request_id"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the given date falls inside the interval, inclusive
// on both ends.
func (l LeaveInterval) Covers(date time.Time) bool {
	return !date.Before(l.StartDate) && !date.After(l.EndDate)
}

// AvailabilityStatus is the derived per-date state of a user.
type AvailabilityStatus string

const (
	AvailabilityOnLeave   AvailabilityStatus = "on_leave"
	AvailabilityAvailable AvailabilityStatus = "available"
)

// UserAvailability projects a user onto their leave state for one date.
type UserAvailability struct {
	ID     string             `db:"id" json:"id"`
	Name   string             `db:"full_name" json:"name"`
	Email  string             `db:"email" json:"email"`
	Role   UserRole           `db:"role" json:"role"`
	Status AvailabilityStatus `db:"status" json:"status"`
}

// AvailabilityFilter constrains the availability projection query.
type AvailabilityFilter struct {
	Date     time.Time
	Status   AvailabilityStatus
	Search   string
	Page     int
	PageSize int
}
