package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-adp-scheduler/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	ListBySemester(ctx context.Context, semesterID string) ([]models.Schedule, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]models.Schedule, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	FindConflicts(ctx context.Context, termID, dayOfWeek, timeSlot string) ([]models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

// CreateScheduleRequest describes payload for creating a schedule.
type CreateScheduleRequest struct {
	TermID     string `json:"term_id" validate:"required"`
	SemesterID string `json:"semester_id" validate:"required"`
	CourseID   string `json:"course_id" validate:"required"`
	FacultyID  string `json:"faculty_id" validate:"required"`
	DayOfWeek  string `json:"day_of_week" validate:"required"`
	TimeSlot   string `json:"time_slot" validate:"required"`
	Room       string `json:"room" validate:"required"`
}

// UpdateScheduleRequest updates an existing schedule.
type UpdateScheduleRequest struct {
	TermID     string `json:"term_id" validate:"required"`
	SemesterID string `json:"semester_id" validate:"required"`
	CourseID   string `json:"course_id" validate:"required"`
	FacultyID  string `json:"faculty_id" validate:"required"`
	DayOfWeek  string `json:"day_of_week" validate:"required"`
	TimeSlot   string `json:"time_slot" validate:"required"`
	Room       string `json:"room" validate:"required"`
}

// BulkCreateSchedulesRequest holds multiple schedules for creation.
type BulkCreateSchedulesRequest struct {
	Items          []CreateScheduleRequest `json:"items" validate:"required,min=1,dive"`
	PartialOnError bool                    `json:"partial_on_error"`
}

// BulkCreateSchedulesResult summarises bulk creation results.
type BulkCreateSchedulesResult struct {
	Created   []models.Schedule         `json:"created"`
	Conflicts []models.ScheduleConflict `json:"conflicts,omitempty"`
}

// ScheduleService coordinates manual schedule bookkeeping for slots that sit
// alongside GA-generated ones (ad hoc overrides, makeup classes).
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
	cache     *CacheService
}

// NewScheduleService instantiates ScheduleService. cache may be nil, in
// which case ListBySemester reads through to the repository on every call.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger, cache *CacheService) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, validator: validate, logger: logger, cache: cache}
}

func scheduleSemesterCacheKey(semesterID string) string {
	return fmt.Sprintf("schedules:semester:%s", semesterID)
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return schedules, pagination, nil
}

// ListBySemester returns schedules for a semester, reading through a cache
// when one is configured since this list is hit far more often than it
// changes. The bool reports whether the cache served the result.
func (s *ScheduleService) ListBySemester(ctx context.Context, semesterID string) ([]models.Schedule, bool, error) {
	key := scheduleSemesterCacheKey(semesterID)
	var cached []models.Schedule
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	schedules, err := s.repo.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedules")
	}
	_ = s.cache.Set(ctx, key, schedules, 0)
	return schedules, false, nil
}

// ListByFaculty returns schedules for a faculty member.
func (s *ScheduleService) ListByFaculty(ctx context.Context, facultyID string) ([]models.Schedule, error) {
	schedules, err := s.repo.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty schedules")
	}
	return schedules, nil
}

// Create inserts a new schedule after conflict detection.
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	schedule := models.Schedule{
		TermID:     req.TermID,
		SemesterID: req.SemesterID,
		CourseID:   req.CourseID,
		FacultyID:  req.FacultyID,
		DayOfWeek:  strings.ToUpper(req.DayOfWeek),
		TimeSlot:   req.TimeSlot,
		Room:       req.Room,
	}

	if err := s.ensureNoConflict(ctx, schedule, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	_ = s.cache.Invalidate(ctx, scheduleSemesterCacheKey(schedule.SemesterID))
	return &schedule, nil
}

// Update modifies an existing schedule.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	updated := models.Schedule{
		ID:         existing.ID,
		TermID:     req.TermID,
		SemesterID: req.SemesterID,
		CourseID:   req.CourseID,
		FacultyID:  req.FacultyID,
		DayOfWeek:  strings.ToUpper(req.DayOfWeek),
		TimeSlot:   req.TimeSlot,
		Room:       req.Room,
	}

	if err := s.ensureNoConflict(ctx, updated, existing.ID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	_ = s.cache.Invalidate(ctx, scheduleSemesterCacheKey(updated.SemesterID))
	return &updated, nil
}

// Delete removes a schedule entry.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	_ = s.cache.Invalidate(ctx, scheduleSemesterCacheKey(existing.SemesterID))
	return nil
}

// BulkCreate inserts multiple schedules optionally allowing partial completion.
func (s *ScheduleService) BulkCreate(ctx context.Context, req BulkCreateSchedulesRequest) (*BulkCreateSchedulesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk schedule payload")
	}

	var created []models.Schedule
	var conflicts []models.ScheduleConflict

	for _, item := range req.Items {
		if err := s.validator.Struct(item); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule entry")
		}
		schedule := models.Schedule{
			TermID:     item.TermID,
			SemesterID: item.SemesterID,
			CourseID:   item.CourseID,
			FacultyID:  item.FacultyID,
			DayOfWeek:  strings.ToUpper(item.DayOfWeek),
			TimeSlot:   item.TimeSlot,
			Room:       item.Room,
		}
		if err := s.ensureNoConflict(ctx, schedule, ""); err != nil {
			if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
				var domainErr *models.ScheduleConflictError
				if errors.As(err, &domainErr) {
					conflicts = append(conflicts, domainErr.Conflict)
				}
				if !req.PartialOnError {
					return nil, err
				}
				continue
			}
			return nil, err
		}
		if err := s.repo.Create(ctx, &schedule); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk create schedules")
		}
		created = append(created, schedule)
	}

	touched := make(map[string]struct{}, len(created))
	for _, schedule := range created {
		touched[schedule.SemesterID] = struct{}{}
	}
	for semesterID := range touched {
		_ = s.cache.Invalidate(ctx, scheduleSemesterCacheKey(semesterID))
	}

	result := &BulkCreateSchedulesResult{Created: created, Conflicts: conflicts}
	if len(conflicts) > 0 && !req.PartialOnError {
		return nil, appErrors.Clone(appErrors.ErrConflict, "schedule conflicts detected")
	}
	return result, nil
}

func (s *ScheduleService) ensureNoConflict(ctx context.Context, schedule models.Schedule, ignoreID string) error {
	existing, err := s.repo.FindConflicts(ctx, schedule.TermID, schedule.DayOfWeek, schedule.TimeSlot)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
	}

	for _, item := range existing {
		if item.ID == ignoreID {
			continue
		}
		if item.SemesterID == schedule.SemesterID {
			return s.wrapConflict("SEMESTER", "semester already scheduled for this slot", item)
		}
		if item.FacultyID == schedule.FacultyID {
			return s.wrapConflict("FACULTY", "faculty already scheduled for this slot", item)
		}
		if strings.EqualFold(item.Room, schedule.Room) {
			return s.wrapConflict("ROOM", "room already booked for this slot", item)
		}
	}
	return nil
}

func (s *ScheduleService) wrapConflict(conflictType, message string, existing models.Schedule) error {
	conflict := models.ScheduleConflict{
		ScheduleID: existing.ID,
		TermID:     existing.TermID,
		SemesterID: existing.SemesterID,
		CourseID:   existing.CourseID,
		FacultyID:  existing.FacultyID,
		DayOfWeek:  existing.DayOfWeek,
		TimeSlot:   existing.TimeSlot,
		Room:       existing.Room,
		Dimension:  conflictType,
	}
	domainErr := &models.ScheduleConflictError{Type: conflictType, Message: message, Conflict: conflict}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("schedule conflict: %s", message))
}
