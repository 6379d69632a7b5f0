package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
)

func newTermRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTermRepositoryFindActiveAndList(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, type, academic_year, start_date, end_date, is_active, created_at, updated_at FROM terms WHERE is_active = TRUE LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "academic_year", "start_date", "end_date", "is_active", "created_at", "updated_at"}).
			AddRow("t1", "Odd 2026", models.TermTypeSemester, "2026", time.Now(), time.Now(), true, time.Now(), time.Now()))

	active, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", active.ID)

	rows := sqlmock.NewRows([]string{"id", "name", "type", "academic_year", "start_date", "end_date", "is_active", "created_at", "updated_at"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, type, academic_year, start_date, end_date, is_active, created_at, updated_at FROM terms WHERE 1=1 ORDER BY start_date DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM terms WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	list, total, err := repo.List(context.Background(), models.TermFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 0)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositorySetActive(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE AND id <> $2")).
		WithArgs(sqlmock.AnyArg(), "t2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET is_active = TRUE, updated_at = $2 WHERE id = $1")).
		WithArgs("t2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetActive(context.Background(), "t2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryCreateAndCountSchedules(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectExec("INSERT INTO terms").
		WithArgs(sqlmock.AnyArg(), "Odd 2026", models.TermTypeSemester, "2026", sqlmock.AnyArg(), sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	term := &models.Term{Name: "Odd 2026", Type: models.TermTypeSemester, AcademicYear: "2026"}
	require.NoError(t, repo.Create(context.Background(), term))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE term_id = $1")).
		WithArgs(term.ID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountSchedules(context.Background(), term.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
