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

func newCourseMappingMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseMappingRepositoryListBySemester(t *testing.T) {
	db, mock, cleanup := newCourseMappingMock(t)
	defer cleanup()
	repo := NewCourseMappingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "semester_id", "course_id", "faculty_id", "faculty_id_2", "created_at"}).
		AddRow("map-1", "sem-1", "course-1", "fac-1", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, semester_id, course_id, faculty_id, faculty_id_2, created_at FROM course_mappings WHERE semester_id = $1")).
		WithArgs("sem-1").
		WillReturnRows(rows)

	mappings, err := repo.ListBySemester(context.Background(), "sem-1")
	require.NoError(t, err)
	assert.Len(t, mappings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseMappingRepositoryCreateDelete(t *testing.T) {
	db, mock, cleanup := newCourseMappingMock(t)
	defer cleanup()
	repo := NewCourseMappingRepository(db)

	mock.ExpectExec("INSERT INTO course_mappings").
		WithArgs(sqlmock.AnyArg(), "sem-1", "course-1", "fac-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.CourseMapping{
		SemesterID: "sem-1",
		CourseID:   "course-1",
		FacultyID:  "fac-1",
	})
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM course_mappings").
		WithArgs("map-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "map-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseMappingRepositoryExistsAndCount(t *testing.T) {
	db, mock, cleanup := newCourseMappingMock(t)
	defer cleanup()
	repo := NewCourseMappingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM course_mappings WHERE semester_id = $1 AND course_id = $2 AND faculty_id = $3 LIMIT 1")).
		WithArgs("sem-1", "course-1", "fac-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "sem-1", "course-1", "fac-1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_mappings WHERE faculty_id = $1 OR faculty_id_2 = $1")).
		WithArgs("fac-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByFaculty(context.Background(), "fac-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
