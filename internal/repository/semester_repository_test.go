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

func newSemesterRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSemesterRepositoryListFiltersByTerm(t *testing.T) {
	db, mock, cleanup := newSemesterRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	rows := sqlmock.NewRows([]string{"id", "term_id", "number", "name", "created_at", "updated_at"}).
		AddRow("s1", "t1", 1, "Semester 1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term_id, number, name, created_at, updated_at FROM semesters WHERE 1=1 AND term_id = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("t1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM semesters WHERE 1=1 AND term_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.SemesterFilter{TermID: "t1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryCreateUpdateDelete(t *testing.T) {
	db, mock, cleanup := newSemesterRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectExec("INSERT INTO semesters").
		WithArgs(sqlmock.AnyArg(), "t1", 1, "Semester 1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	semester := &models.Semester{TermID: "t1", Number: 1, Name: "Semester 1"}
	require.NoError(t, repo.Create(context.Background(), semester))

	mock.ExpectExec("UPDATE semesters SET term_id").
		WithArgs("t1", 1, "Semester 1 Renamed", sqlmock.AnyArg(), semester.ID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	semester.Name = "Semester 1 Renamed"
	require.NoError(t, repo.Update(context.Background(), semester))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM semesters WHERE id = $1")).
		WithArgs(semester.ID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), semester.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryExistsByNumberAndCounts(t *testing.T) {
	db, mock, cleanup := newSemesterRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM semesters WHERE term_id = $1 AND number = $2 LIMIT 1")).
		WithArgs("t1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByNumber(context.Background(), "t1", 1, "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_mappings WHERE semester_id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountCourseMappings(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE semester_id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	scheduleCount, err := repo.CountSchedules(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, scheduleCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
