package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/offday-api/internal/models"
)

func userRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "full_name", "role", "department",
		"active", "last_login", "created_at", "updated_at",
	}).AddRow("u-1", "jane@school.edu", "hash", "Jane Doe", "teacher", nil, true, nil, now, now)
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE LOWER\(email\) = LOWER\(\$1\) LIMIT 1`).
		WithArgs("jane@school.edu").
		WillReturnRows(userRows())

	user, err := repo.FindByEmail(context.Background(), "jane@school.edu")
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)
	require.Equal(t, models.RoleTeacher, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM users WHERE LOWER\(email\) = LOWER\(\$1\) LIMIT 1`).
		WithArgs("jane@school.edu").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM users WHERE LOWER\(email\) = LOWER\(\$1\) LIMIT 1`).
		WithArgs("nobody@school.edu").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByEmail(context.Background(), "jane@school.edu")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.ExistsByEmail(context.Background(), "nobody@school.edu")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateProfileNoRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	name := "Jane D. Doe"
	mock.ExpectExec(`UPDATE users SET updated_at = \$1, full_name = \$2 WHERE LOWER\(email\) = LOWER\(\$3\)`).
		WithArgs(sqlmock.AnyArg(), "Jane D. Doe", "ghost@school.edu").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateProfile(context.Background(), "ghost@school.edu", &name, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListOffdays(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, user_email, request_id, start_date, end_date, created_at FROM user_offdays WHERE LOWER\(user_email\) = LOWER\(\$1\) ORDER BY start_date ASC`).
		WithArgs("jane@school.edu").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_email", "request_id", "start_date", "end_date", "created_at"}).
			AddRow("o-1", "jane@school.edu", "req-1", now, now.Add(48*time.Hour), now))

	intervals, err := repo.ListOffdays(context.Background(), "jane@school.edu")
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	require.Equal(t, "req-1", intervals[0].RequestID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListAvailability(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	date := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT u\.id, u\.full_name, u\.email, u\.role, CASE WHEN EXISTS .+ THEN 'on_leave' ELSE 'available' END AS status FROM users u WHERE 1=1`).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role", "status"}).
			AddRow("u-1", "Jane Doe", "jane@school.edu", "teacher", "on_leave").
			AddRow("u-2", "John Roe", "john@school.edu", "teacher", "available"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users u WHERE 1=1`).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	users, total, err := repo.ListAvailability(context.Background(), models.AvailabilityFilter{Date: date})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, users, 2)
	require.Equal(t, models.AvailabilityOnLeave, users[0].Status)
	require.Equal(t, models.AvailabilityAvailable, users[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListAvailabilityOnLeaveFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	date := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM users u WHERE 1=1 AND EXISTS \(SELECT 1 FROM user_offdays o WHERE o\.user_email = u\.email AND \$1::date BETWEEN o\.start_date AND o\.end_date\)`).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role", "status"}).
			AddRow("u-1", "Jane Doe", "jane@school.edu", "teacher", "on_leave"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users u WHERE 1=1 AND EXISTS`).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.ListAvailability(context.Background(), models.AvailabilityFilter{
		Date:   date,
		Status: models.AvailabilityOnLeave,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, users, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRevokeUserRefreshTokens(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked = TRUE, revoked_at = \$2 WHERE user_id = \$1 AND revoked = FALSE`).
		WithArgs("u-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.RevokeUserRefreshTokens(context.Background(), "u-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
