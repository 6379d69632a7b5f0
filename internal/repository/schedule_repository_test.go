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

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleRepositoryListBySemesterAndFaculty(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	cols := []string{"id", "term_id", "semester_id", "course_id", "faculty_id", "day_of_week", "time_slot", "room", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term_id, semester_id, course_id, faculty_id, day_of_week, time_slot, room, created_at, updated_at FROM schedules WHERE semester_id = $1 ORDER BY day_of_week ASC, time_slot ASC")).
		WithArgs("sem-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("sch-1", "t1", "sem-1", "c1", "f1", "MON", "P1", "R1", time.Now(), time.Now()))

	bySemester, err := repo.ListBySemester(context.Background(), "sem-1")
	require.NoError(t, err)
	assert.Len(t, bySemester, 1)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term_id, semester_id, course_id, faculty_id, day_of_week, time_slot, room, created_at, updated_at FROM schedules WHERE faculty_id = $1 ORDER BY day_of_week ASC, time_slot ASC")).
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(cols))

	byFaculty, err := repo.ListByFaculty(context.Background(), "f1")
	require.NoError(t, err)
	assert.Len(t, byFaculty, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindConflicts(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	cols := []string{"id", "term_id", "semester_id", "course_id", "faculty_id", "day_of_week", "time_slot", "room", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term_id, semester_id, course_id, faculty_id, day_of_week, time_slot, room, created_at, updated_at FROM schedules WHERE term_id = $1 AND day_of_week = $2 AND time_slot = $3")).
		WithArgs("t1", "MON", "P1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("sch-1", "t1", "sem-1", "c1", "f1", "MON", "P1", "R1", time.Now(), time.Now()))

	conflicts, err := repo.FindConflicts(context.Background(), "t1", "MON", "P1")
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryReplaceForSemester(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE term_id = $1 AND semester_id = $2")).
		WithArgs("t1", "sem-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO schedules").
		WithArgs(sqlmock.AnyArg(), "t1", "sem-1", "c1", "f1", "MON", "P1", "R1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceForSemester(context.Background(), "t1", "sem-1", []models.Schedule{
		{TermID: "t1", SemesterID: "sem-1", CourseID: "c1", FacultyID: "f1", DayOfWeek: "MON", TimeSlot: "P1", Room: "R1"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateDelete(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	schedule := &models.Schedule{ID: "sch-1", TermID: "t1", SemesterID: "sem-1", CourseID: "c1", FacultyID: "f1", DayOfWeek: "MON", TimeSlot: "P1", Room: "R2"}
	mock.ExpectExec("UPDATE schedules SET term_id").
		WithArgs("t1", "sem-1", "c1", "f1", "MON", "P1", "R2", sqlmock.AnyArg(), "sch-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Update(context.Background(), schedule))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("sch-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Delete(context.Background(), "sch-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
