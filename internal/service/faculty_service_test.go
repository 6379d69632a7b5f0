package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
)

type mockFacultyRepo struct {
	items            map[string]*models.Faculty
	emailIndex       map[string]string
	employeeCodeIdx  map[string]string
	listResult       []models.Faculty
	listTotal        int
	listErr          error
	deactivated      []string
}

func (m *mockFacultyRepo) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockFacultyRepo) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	if faculty, ok := m.items[id]; ok {
		cp := *faculty
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFacultyRepo) FindByEmail(ctx context.Context, email string) (*models.Faculty, error) {
	for _, faculty := range m.items {
		if faculty.Email == email {
			cp := *faculty
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockFacultyRepo) ListByDepartment(ctx context.Context, departmentID string) ([]models.Faculty, error) {
	var out []models.Faculty
	for _, faculty := range m.items {
		if faculty.DepartmentID == departmentID {
			out = append(out, *faculty)
		}
	}
	return out, nil
}

func (m *mockFacultyRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	if owner, ok := m.emailIndex[email]; ok {
		if excludeID == "" || owner != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFacultyRepo) ExistsByEmployeeCode(ctx context.Context, code, excludeID string) (bool, error) {
	if owner, ok := m.employeeCodeIdx[code]; ok {
		if excludeID == "" || owner != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFacultyRepo) Create(ctx context.Context, faculty *models.Faculty) error {
	if m.items == nil {
		m.items = make(map[string]*models.Faculty)
	}
	if faculty.ID == "" {
		faculty.ID = "generated"
	}
	now := time.Now()
	faculty.CreatedAt = now
	faculty.UpdatedAt = now
	cp := *faculty
	m.items[faculty.ID] = &cp
	return nil
}

func (m *mockFacultyRepo) Update(ctx context.Context, faculty *models.Faculty) error {
	if m.items == nil {
		m.items = make(map[string]*models.Faculty)
	}
	cp := *faculty
	m.items[faculty.ID] = &cp
	return nil
}

func (m *mockFacultyRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	if f, ok := m.items[id]; ok {
		f.Active = false
	}
	return nil
}

type mockFacultyDepartmentReader struct {
	items map[string]*models.Department
}

func (m *mockFacultyDepartmentReader) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if dept, ok := m.items[id]; ok {
		cp := *dept
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func TestFacultyServiceCreate(t *testing.T) {
	repo := &mockFacultyRepo{}
	department := &mockFacultyDepartmentReader{items: map[string]*models.Department{
		"dept-1": {ID: "dept-1", Name: "Computer Science"},
	}}
	service := NewFacultyService(repo, department, validator.New(), zap.NewNop())

	faculty, err := service.Create(context.Background(), CreateFacultyRequest{
		DepartmentID: "dept-1",
		Email:        "faculty@example.com",
		FullName:     "Faculty One",
	})
	require.NoError(t, err)
	assert.Equal(t, "faculty@example.com", faculty.Email)
	assert.True(t, faculty.Active)
	assert.Len(t, repo.items, 1)
}

func TestFacultyServiceCreateUnknownDepartment(t *testing.T) {
	repo := &mockFacultyRepo{}
	department := &mockFacultyDepartmentReader{items: map[string]*models.Department{}}
	service := NewFacultyService(repo, department, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateFacultyRequest{
		DepartmentID: "missing",
		Email:        "faculty@example.com",
		FullName:     "Faculty One",
	})
	require.Error(t, err)
}

func TestFacultyServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockFacultyRepo{emailIndex: map[string]string{"faculty@example.com": "another"}}
	department := &mockFacultyDepartmentReader{items: map[string]*models.Department{
		"dept-1": {ID: "dept-1", Name: "Computer Science"},
	}}
	service := NewFacultyService(repo, department, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateFacultyRequest{
		DepartmentID: "dept-1",
		Email:        "faculty@example.com",
		FullName:     "Faculty One",
	})
	require.Error(t, err)
}

func TestFacultyServiceUpdate(t *testing.T) {
	repo := &mockFacultyRepo{
		items: map[string]*models.Faculty{
			"f1": {ID: "f1", DepartmentID: "dept-1", Email: "faculty@example.com", FullName: "Faculty One", Active: true},
		},
	}
	department := &mockFacultyDepartmentReader{items: map[string]*models.Department{
		"dept-1": {ID: "dept-1", Name: "Computer Science"},
	}}
	service := NewFacultyService(repo, department, validator.New(), zap.NewNop())

	active := true
	updated, err := service.Update(context.Background(), "f1", UpdateFacultyRequest{
		DepartmentID: "dept-1",
		Email:        "updated@example.com",
		FullName:     "Faculty Updated",
		Active:       &active,
	})
	require.NoError(t, err)
	assert.Equal(t, "updated@example.com", updated.Email)
	assert.Equal(t, "Faculty Updated", updated.FullName)
}

func TestFacultyServiceDeactivate(t *testing.T) {
	repo := &mockFacultyRepo{
		items: map[string]*models.Faculty{
			"f1": {ID: "f1", DepartmentID: "dept-1", Email: "faculty@example.com", FullName: "Faculty One", Active: true},
		},
	}
	department := &mockFacultyDepartmentReader{items: map[string]*models.Department{
		"dept-1": {ID: "dept-1", Name: "Computer Science"},
	}}
	service := NewFacultyService(repo, department, validator.New(), zap.NewNop())

	err := service.Deactivate(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, repo.deactivated)
}
