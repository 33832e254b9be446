package models

import "time"

// RequestStatus captures the lifecycle states of an offday request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusAccepted   RequestStatus = "accepted"
	RequestStatusRejected   RequestStatus = "rejected"
)

// DecisionAction enumerates decisions a reviewer can take on a request.
type DecisionAction string

const (
	DecisionForward DecisionAction = "forward"
	DecisionAccept  DecisionAction = "accept"
	DecisionReject  DecisionAction = "reject"
)

// OffdayRequest is a teacher's leave application and its approval state.
// Owner name and email are denormalized onto the row so the listing search
// does not need a join.
type OffdayRequest struct {
	ID               string        `db:"id" json:"id"`
	OwnerEmail       string        `db:"owner_email" json:"owner_email"`
	OwnerName        string        `db:"owner_name" json:"owner_name"`
	Subject          string        `db:"subject" json:"subject"`
	StartDate        time.Time     `db:"start_date" json:"start_date"`
	EndDate          time.Time     `db:"end_date" json:"end_date"`
	Days             int           `db:"days" json:"days"`
	Description      string        `db:"description" json:"description"`
	Status           RequestStatus `db:"status" json:"status"`
	RejectionMessage *string       `db:"rejection_message" json:"rejection_message,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// RequestFilter constrains listing queries.
type RequestFilter struct {
	OwnerEmail string
	Status     RequestStatus
	Search     string
	Page       int
	PageSize   int
}

// LeaveDays computes the inclusive day count between two calendar dates.
func LeaveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
