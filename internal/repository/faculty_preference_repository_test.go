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

func newFacultyPrefMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFacultyPreferenceRepositoryListByFaculty(t *testing.T) {
	db, mock, cleanup := newFacultyPrefMock(t)
	defer cleanup()
	repo := NewFacultyPreferenceRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "faculty_id", "day_of_week", "period_start", "period_end", "kind", "created_at"}).
		AddRow("pref-1", "fac-1", 1, 1, 2, models.PreferenceBlocked, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, faculty_id, day_of_week, period_start, period_end, kind, created_at\n\t\tFROM faculty_preferences WHERE faculty_id = $1 ORDER BY day_of_week ASC, period_start ASC")).
		WithArgs("fac-1").
		WillReturnRows(rows)

	prefs, err := repo.ListByFaculty(context.Background(), "fac-1")
	require.NoError(t, err)
	assert.Len(t, prefs, 1)
	assert.Equal(t, models.PreferenceBlocked, prefs[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyPreferenceRepositoryCreateAndDelete(t *testing.T) {
	db, mock, cleanup := newFacultyPrefMock(t)
	defer cleanup()
	repo := NewFacultyPreferenceRepository(db)

	mock.ExpectExec("INSERT INTO faculty_preferences").
		WithArgs(sqlmock.AnyArg(), "fac-1", 2, 3, 4, models.PreferencePreferred, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.FacultyPreference{
		FacultyID:   "fac-1",
		DayOfWeek:   2,
		PeriodStart: 3,
		PeriodEnd:   4,
		Kind:        models.PreferencePreferred,
	})
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM faculty_preferences WHERE id = \\$1").
		WithArgs("pref-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "pref-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyPreferenceRepositoryDeleteByFaculty(t *testing.T) {
	db, mock, cleanup := newFacultyPrefMock(t)
	defer cleanup()
	repo := NewFacultyPreferenceRepository(db)

	mock.ExpectExec("DELETE FROM faculty_preferences WHERE faculty_id = \\$1").
		WithArgs("fac-1").
		WillReturnResult(sqlmock.NewResult(1, 3))

	require.NoError(t, repo.DeleteByFaculty(context.Background(), "fac-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
