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

func newFacultyRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFacultyRepositoryList(t *testing.T) {
	db, mock, cleanup := newFacultyRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	rows := sqlmock.NewRows([]string{"id", "department_id", "employee_code", "email", "full_name", "phone", "active", "created_at", "updated_at"}).
		AddRow("f1", "d1", nil, "a@example.com", "Faculty A", nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, department_id, employee_code, email, full_name, phone, active, created_at, updated_at FROM faculty WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM faculty WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.FacultyFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyRepositoryListFiltersByDepartment(t *testing.T) {
	db, mock, cleanup := newFacultyRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, department_id, employee_code, email, full_name, phone, active, created_at, updated_at FROM faculty WHERE 1=1 AND department_id = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "department_id", "employee_code", "email", "full_name", "phone", "active", "created_at", "updated_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM faculty WHERE 1=1 AND department_id = $1")).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.FacultyFilter{DepartmentID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyRepositoryCreateAndDeactivate(t *testing.T) {
	db, mock, cleanup := newFacultyRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectExec("INSERT INTO faculty").
		WithArgs(sqlmock.AnyArg(), "d1", sqlmock.AnyArg(), "a@example.com", "Faculty A", sqlmock.AnyArg(), true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.Faculty{DepartmentID: "d1", Email: "a@example.com", FullName: "Faculty A", Active: true})
	require.NoError(t, err)

	mock.ExpectExec("UPDATE faculty SET active = FALSE").
		WithArgs("id-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "id-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newFacultyRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM faculty WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "a@example.com", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyRepositoryExistsByEmployeeCode(t *testing.T) {
	db, mock, cleanup := newFacultyRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	exists, err := repo.ExistsByEmployeeCode(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM faculty WHERE employee_code = $1 LIMIT 1")).
		WithArgs("EMP-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err = repo.ExistsByEmployeeCode(context.Background(), "EMP-1", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
