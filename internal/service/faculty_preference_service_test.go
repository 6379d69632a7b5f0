package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
)

type mockFacultyPreferenceFacultyReader struct {
	items map[string]*models.Faculty
}

func (m *mockFacultyPreferenceFacultyReader) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	return nil, 0, nil
}

func (m *mockFacultyPreferenceFacultyReader) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	if faculty, ok := m.items[id]; ok {
		cp := *faculty
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFacultyPreferenceFacultyReader) FindByEmail(ctx context.Context, email string) (*models.Faculty, error) {
	return nil, sql.ErrNoRows
}

func (m *mockFacultyPreferenceFacultyReader) ListByDepartment(ctx context.Context, departmentID string) ([]models.Faculty, error) {
	return nil, nil
}

func (m *mockFacultyPreferenceFacultyReader) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return false, nil
}

func (m *mockFacultyPreferenceFacultyReader) ExistsByEmployeeCode(ctx context.Context, code, excludeID string) (bool, error) {
	return false, nil
}

func (m *mockFacultyPreferenceFacultyReader) Create(ctx context.Context, faculty *models.Faculty) error {
	return nil
}

func (m *mockFacultyPreferenceFacultyReader) Update(ctx context.Context, faculty *models.Faculty) error {
	return nil
}

func (m *mockFacultyPreferenceFacultyReader) Deactivate(ctx context.Context, id string) error {
	return nil
}

type mockFacultyPreferenceRepo struct {
	items     map[string]*models.FacultyPreference
	created   []*models.FacultyPreference
	deleted   []string
	deletedBy []string
}

func (m *mockFacultyPreferenceRepo) ListByFaculty(ctx context.Context, facultyID string) ([]models.FacultyPreference, error) {
	var out []models.FacultyPreference
	for _, pref := range m.items {
		if pref.FacultyID == facultyID {
			out = append(out, *pref)
		}
	}
	return out, nil
}

func (m *mockFacultyPreferenceRepo) ListBySemester(ctx context.Context, semesterID string) ([]models.FacultyPreference, error) {
	return nil, nil
}

func (m *mockFacultyPreferenceRepo) Create(ctx context.Context, pref *models.FacultyPreference) error {
	if m.items == nil {
		m.items = make(map[string]*models.FacultyPreference)
	}
	if pref.ID == "" {
		pref.ID = "generated"
	}
	cp := *pref
	m.items[pref.ID] = &cp
	m.created = append(m.created, &cp)
	return nil
}

func (m *mockFacultyPreferenceRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockFacultyPreferenceRepo) DeleteByFaculty(ctx context.Context, facultyID string) error {
	for id, pref := range m.items {
		if pref.FacultyID == facultyID {
			delete(m.items, id)
		}
	}
	m.deletedBy = append(m.deletedBy, facultyID)
	return nil
}

func TestFacultyPreferenceServiceCreate(t *testing.T) {
	faculty := &mockFacultyPreferenceFacultyReader{items: map[string]*models.Faculty{
		"f1": {ID: "f1"},
	}}
	repo := &mockFacultyPreferenceRepo{}
	service := NewFacultyPreferenceService(faculty, repo, validator.New(), zap.NewNop())

	pref, err := service.Create(context.Background(), "f1", CreateFacultyPreferenceRequest{
		DayOfWeek:   1,
		PeriodStart: 1,
		PeriodEnd:   2,
		Kind:        models.PreferenceBlocked,
	})
	require.NoError(t, err)
	assert.Equal(t, "f1", pref.FacultyID)
	assert.Len(t, repo.created, 1)
}

func TestFacultyPreferenceServiceCreateInvalidRange(t *testing.T) {
	faculty := &mockFacultyPreferenceFacultyReader{items: map[string]*models.Faculty{
		"f1": {ID: "f1"},
	}}
	repo := &mockFacultyPreferenceRepo{}
	service := NewFacultyPreferenceService(faculty, repo, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), "f1", CreateFacultyPreferenceRequest{
		DayOfWeek:   1,
		PeriodStart: 4,
		PeriodEnd:   2,
		Kind:        models.PreferenceBlocked,
	})
	require.Error(t, err)
}

func TestFacultyPreferenceServiceCreateUnknownFaculty(t *testing.T) {
	faculty := &mockFacultyPreferenceFacultyReader{items: map[string]*models.Faculty{}}
	repo := &mockFacultyPreferenceRepo{}
	service := NewFacultyPreferenceService(faculty, repo, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), "missing", CreateFacultyPreferenceRequest{
		DayOfWeek:   1,
		PeriodStart: 1,
		PeriodEnd:   2,
		Kind:        models.PreferencePreferred,
	})
	require.Error(t, err)
}

func TestFacultyPreferenceServiceList(t *testing.T) {
	faculty := &mockFacultyPreferenceFacultyReader{items: map[string]*models.Faculty{
		"f1": {ID: "f1"},
	}}
	repo := &mockFacultyPreferenceRepo{items: map[string]*models.FacultyPreference{
		"p1": {ID: "p1", FacultyID: "f1", DayOfWeek: 2, PeriodStart: 1, PeriodEnd: 1, Kind: models.PreferenceBlocked},
	}}
	service := NewFacultyPreferenceService(faculty, repo, validator.New(), zap.NewNop())

	prefs, err := service.List(context.Background(), "f1")
	require.NoError(t, err)
	assert.Len(t, prefs, 1)
}

func TestFacultyPreferenceServiceDelete(t *testing.T) {
	faculty := &mockFacultyPreferenceFacultyReader{}
	repo := &mockFacultyPreferenceRepo{items: map[string]*models.FacultyPreference{
		"p1": {ID: "p1", FacultyID: "f1"},
	}}
	service := NewFacultyPreferenceService(faculty, repo, validator.New(), zap.NewNop())

	err := service.Delete(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, repo.items)
}

func TestFacultyPreferenceServiceReplaceAll(t *testing.T) {
	faculty := &mockFacultyPreferenceFacultyReader{items: map[string]*models.Faculty{
		"f1": {ID: "f1"},
	}}
	repo := &mockFacultyPreferenceRepo{items: map[string]*models.FacultyPreference{
		"p1": {ID: "p1", FacultyID: "f1", DayOfWeek: 1, PeriodStart: 1, PeriodEnd: 1, Kind: models.PreferenceBlocked},
	}}
	service := NewFacultyPreferenceService(faculty, repo, validator.New(), zap.NewNop())

	created, err := service.ReplaceAll(context.Background(), "f1", []CreateFacultyPreferenceRequest{
		{DayOfWeek: 3, PeriodStart: 1, PeriodEnd: 2, Kind: models.PreferencePreferred},
	})
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Len(t, repo.deletedBy, 1)
}
