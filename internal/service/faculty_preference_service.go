package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-adp-scheduler/pkg/errors"
)

type facultyPreferenceRepo interface {
	ListByFaculty(ctx context.Context, facultyID string) ([]models.FacultyPreference, error)
	ListBySemester(ctx context.Context, semesterID string) ([]models.FacultyPreference, error)
	Create(ctx context.Context, pref *models.FacultyPreference) error
	Delete(ctx context.Context, id string) error
	DeleteByFaculty(ctx context.Context, facultyID string) error
}

// CreateFacultyPreferenceRequest declares a single day/period-range window.
type CreateFacultyPreferenceRequest struct {
	DayOfWeek   int                   `json:"day_of_week" validate:"min=1,max=6"`
	PeriodStart int                   `json:"period_start" validate:"min=1,max=6"`
	PeriodEnd   int                   `json:"period_end" validate:"min=1,max=6"`
	Kind        models.PreferenceKind `json:"kind" validate:"required,oneof=BLOCKED PREFERRED"`
}

// FacultyPreferenceService manages faculty preference windows.
type FacultyPreferenceService struct {
	faculty   facultyRepository
	repo      facultyPreferenceRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyPreferenceService builds the service.
func NewFacultyPreferenceService(faculty facultyRepository, repo facultyPreferenceRepo, validate *validator.Validate, logger *zap.Logger) *FacultyPreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyPreferenceService{
		faculty:   faculty,
		repo:      repo,
		validator: validate,
		logger:    logger,
	}
}

// List returns every preference window declared by a faculty member.
func (s *FacultyPreferenceService) List(ctx context.Context, facultyID string) ([]models.FacultyPreference, error) {
	if _, err := s.faculty.FindByID(ctx, facultyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	prefs, err := s.repo.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty preferences")
	}
	return prefs, nil
}

// Create adds a new preference window for a faculty member.
func (s *FacultyPreferenceService) Create(ctx context.Context, facultyID string, req CreateFacultyPreferenceRequest) (*models.FacultyPreference, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}
	if req.PeriodStart > req.PeriodEnd {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period_start must not exceed period_end")
	}
	if _, err := s.faculty.FindByID(ctx, facultyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	pref := &models.FacultyPreference{
		FacultyID:   facultyID,
		DayOfWeek:   req.DayOfWeek,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Kind:        req.Kind,
	}
	if err := s.repo.Create(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty preference")
	}
	return pref, nil
}

// Delete removes a single preference window.
func (s *FacultyPreferenceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete faculty preference")
	}
	return nil
}

// ReplaceAll discards every existing window for a faculty member and stores
// the replacement set, used by bulk-preference-edit workflows.
func (s *FacultyPreferenceService) ReplaceAll(ctx context.Context, facultyID string, windows []CreateFacultyPreferenceRequest) ([]models.FacultyPreference, error) {
	if _, err := s.faculty.FindByID(ctx, facultyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	for _, window := range windows {
		if err := s.validator.Struct(window); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
		}
		if window.PeriodStart > window.PeriodEnd {
			return nil, appErrors.Clone(appErrors.ErrValidation, "period_start must not exceed period_end")
		}
	}

	if err := s.repo.DeleteByFaculty(ctx, facultyID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear faculty preferences")
	}

	created := make([]models.FacultyPreference, 0, len(windows))
	for _, window := range windows {
		pref := &models.FacultyPreference{
			FacultyID:   facultyID,
			DayOfWeek:   window.DayOfWeek,
			PeriodStart: window.PeriodStart,
			PeriodEnd:   window.PeriodEnd,
			Kind:        window.Kind,
		}
		if err := s.repo.Create(ctx, pref); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty preference")
		}
		created = append(created, *pref)
	}
	return created, nil
}
