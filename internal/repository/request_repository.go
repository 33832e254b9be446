package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/offday-api/internal/models"
)

// RequestRepository persists offday requests. Every state transition is a
// conditional single-row write keyed on the expected current status so two
// concurrent decisions cannot both succeed; the loser sees sql.ErrNoRows.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new request row.
func (r *RequestRepository) Create(ctx context.Context, request *models.OffdayRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RequestStatusPending
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	if request.UpdatedAt.IsZero() {
		request.UpdatedAt = now
	}
	const query = `INSERT INTO offday_requests
	(id, owner_email, owner_name, subject, start_date, end_date, days, description, status, rejection_message, created_at, updated_at)
	VALUES (:id, :owner_email, :owner_name, :subject, :start_date, :end_date, :days, :description, :status, :rejection_message, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create offday request: %w", err)
	}
	return nil
}

const requestColumns = `id, owner_email, owner_name, subject, start_date, end_date, days, description, status, rejection_message, created_at, updated_at`

// GetByID fetches a request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.OffdayRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM offday_requests WHERE id = $1`, requestColumns)
	var request models.OffdayRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// FindByIDAndOwner fetches a request only when it belongs to the given owner.
func (r *RequestRepository) FindByIDAndOwner(ctx context.Context, id, ownerEmail string) (*models.OffdayRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM offday_requests WHERE id = $1 AND owner_email = $2`, requestColumns)
	var request models.OffdayRequest
	if err := r.db.GetContext(ctx, &request, query, id, ownerEmail); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter along with the total count.
// In-progress requests sort ahead of everything else, then newest first.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.OffdayRequest, int, error) {
	base := "FROM offday_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.OwnerEmail != "" {
		conditions = append(conditions, fmt.Sprintf("owner_email = $%d", len(args)+1))
		args = append(args, filter.OwnerEmail)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(owner_name) LIKE $%d OR LOWER(owner_email) LIKE $%d OR LOWER(subject) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY CASE WHEN status = '%s' THEN 0 ELSE 1 END, created_at DESC LIMIT %d OFFSET %d`,
		requestColumns, base, models.RequestStatusInProgress, size, offset)
	var requests []models.OffdayRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list offday requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count offday requests: %w", err)
	}

	return requests, total, nil
}

// ListAll returns every request matching the filter without pagination, used
// by the register export.
func (r *RequestRepository) ListAll(ctx context.Context, filter models.RequestFilter, maxRows int) ([]models.OffdayRequest, error) {
	filter.Page = 1
	if maxRows <= 0 {
		maxRows = 1000
	}
	filter.PageSize = maxRows
	requests, _, err := r.List(ctx, filter)
	return requests, err
}

// UpdatePendingParams groups the editable columns of a pending request.
type UpdatePendingParams struct {
	ID          string
	OwnerEmail  string
	Subject     *string
	StartDate   *time.Time
	EndDate     *time.Time
	Days        *int
	Description *string
}

// UpdatePending applies a partial edit guarded on ownership and pending
// status. Returns sql.ErrNoRows when no matching pending row exists.
func (r *RequestRepository) UpdatePending(ctx context.Context, params UpdatePendingParams) error {
	setParts := []string{"updated_at = $1"}
	args := []interface{}{time.Now().UTC()}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Subject != nil {
		appendSet("subject", *params.Subject)
	}
	if params.StartDate != nil {
		appendSet("start_date", *params.StartDate)
	}
	if params.EndDate != nil {
		appendSet("end_date", *params.EndDate)
	}
	if params.Days != nil {
		appendSet("days", *params.Days)
	}
	if params.Description != nil {
		appendSet("description", *params.Description)
	}

	args = append(args, params.ID, params.OwnerEmail)
	query := fmt.Sprintf(`UPDATE offday_requests SET %s WHERE id = $%d AND owner_email = $%d AND status = '%s'`,
		strings.Join(setParts, ", "), len(args)-1, len(args), models.RequestStatusPending)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update pending request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check pending update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeletePending removes a request guarded on ownership and pending status.
func (r *RequestRepository) DeletePending(ctx context.Context, id, ownerEmail string) error {
	query := fmt.Sprintf(`DELETE FROM offday_requests WHERE id = $1 AND owner_email = $2 AND status = '%s'`,
		models.RequestStatusPending)
	result, err := r.db.ExecContext(ctx, query, id, ownerEmail)
	if err != nil {
		return fmt.Errorf("delete pending request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check pending delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatusParams describes one conditional state transition.
type UpdateStatusParams struct {
	ID               string
	From             models.RequestStatus
	To               models.RequestStatus
	RejectionMessage *string
}

// UpdateStatus flips the request status only when the row still holds the
// expected current status. A nil RejectionMessage clears the column.
func (r *RequestRepository) UpdateStatus(ctx context.Context, params UpdateStatusParams) error {
	const query = `UPDATE offday_requests SET status = $1, rejection_message = $2, updated_at = $3 WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, params.To, params.RejectionMessage, time.Now().UTC(), params.ID, params.From)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check status update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AcceptAndRecordLeave commits the acceptance transition and the ledger
// append in one transaction. The status flip is conditional on in_progress
// and the ledger row is keyed by request id, so a lost race or a replay
// fails with sql.ErrNoRows instead of appending twice.
func (r *RequestRepository) AcceptAndRecordLeave(ctx context.Context, request *models.OffdayRequest) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const flip = `UPDATE offday_requests SET status = $1, rejection_message = NULL, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := tx.ExecContext(ctx, flip, models.RequestStatusAccepted, time.Now().UTC(), request.ID, models.RequestStatusInProgress)
	if err != nil {
		return fmt.Errorf("accept request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check accept rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	const appendLeave = `INSERT INTO user_offdays (id, user_email, request_id, start_date, end_date, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, appendLeave, uuid.NewString(), request.OwnerEmail, request.ID, request.StartDate, request.EndDate, time.Now().UTC()); err != nil {
		return fmt.Errorf("append leave interval: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accept tx: %w", err)
	}
	return nil
}
