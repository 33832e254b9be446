package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/offday-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func requestRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "owner_email", "owner_name", "subject", "start_date", "end_date",
		"days", "description", "status", "rejection_message", "created_at", "updated_at",
	}).AddRow("req-1", "jane@school.edu", "Jane Doe", "Family leave",
		now, now.Add(48*time.Hour), 3, "travelling home", "pending", nil, now, now)
}

func TestRequestRepositoryGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM offday_requests WHERE id = \$1`).
		WithArgs("req-1").
		WillReturnRows(requestRows())

	request, err := repo.GetByID(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, "req-1", request.ID)
	require.Equal(t, models.RequestStatusPending, request.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListOrdersInProgressFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM offday_requests WHERE 1=1 AND owner_email = \$1 ORDER BY CASE WHEN status = 'in_progress' THEN 0 ELSE 1 END, created_at DESC`).
		WithArgs("jane@school.edu").
		WillReturnRows(requestRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM offday_requests WHERE 1=1 AND owner_email = \$1`).
		WithArgs("jane@school.edu").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.List(context.Background(), models.RequestFilter{OwnerEmail: "jane@school.edu"})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateStatusConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectExec(`UPDATE offday_requests SET status = \$1, rejection_message = \$2, updated_at = \$3 WHERE id = \$4 AND status = \$5`).
		WithArgs("in_progress", nil, sqlmock.AnyArg(), "req-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:   "req-1",
		From: models.RequestStatusPending,
		To:   models.RequestStatusInProgress,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateStatusRejectWithMessage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	message := "insufficient coverage"
	mock.ExpectExec(`UPDATE offday_requests SET status = \$1, rejection_message = \$2, updated_at = \$3 WHERE id = \$4 AND status = \$5`).
		WithArgs("rejected", &message, sqlmock.AnyArg(), "req-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:               "req-1",
		From:             models.RequestStatusPending,
		To:               models.RequestStatusRejected,
		RejectionMessage: &message,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryDeletePendingAlreadyProcessed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectExec(`DELETE FROM offday_requests WHERE id = \$1 AND owner_email = \$2 AND status = 'pending'`).
		WithArgs("req-1", "jane@school.edu").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeletePending(context.Background(), "req-1", "jane@school.edu")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryAcceptAndRecordLeave(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	start := time.Now().UTC()
	end := start.Add(48 * time.Hour)
	request := &models.OffdayRequest{
		ID:         "req-1",
		OwnerEmail: "jane@school.edu",
		StartDate:  start,
		EndDate:    end,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE offday_requests SET status = \$1, rejection_message = NULL, updated_at = \$2 WHERE id = \$3 AND status = \$4`).
		WithArgs("accepted", sqlmock.AnyArg(), "req-1", "in_progress").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_offdays \(id, user_email, request_id, start_date, end_date, created_at\)`).
		WithArgs(sqlmock.AnyArg(), "jane@school.edu", "req-1", start, end, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AcceptAndRecordLeave(context.Background(), request))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryAcceptLostRaceRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE offday_requests SET status = \$1, rejection_message = NULL, updated_at = \$2 WHERE id = \$3 AND status = \$4`).
		WithArgs("accepted", sqlmock.AnyArg(), "req-1", "in_progress").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.AcceptAndRecordLeave(context.Background(), &models.OffdayRequest{ID: "req-1"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
