package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-adp-scheduler/pkg/errors"
)

type courseMappingRepo interface {
	List(ctx context.Context, filter models.CourseMappingFilter) ([]models.CourseMappingDetail, int, error)
	ListBySemester(ctx context.Context, semesterID string) ([]models.CourseMapping, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]models.CourseMapping, error)
	FindByID(ctx context.Context, id string) (*models.CourseMapping, error)
	Exists(ctx context.Context, semesterID, courseID, facultyID string) (bool, error)
	HasFacultyAccess(ctx context.Context, facultyID, semesterID string) (bool, error)
	Create(ctx context.Context, mapping *models.CourseMapping) error
	Delete(ctx context.Context, id string) error
	CountByFaculty(ctx context.Context, facultyID string) (int, error)
}

type mappingSemesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type mappingCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type mappingFacultyReader interface {
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
}

// CreateCourseMappingRequest describes a new semester/course/faculty mapping.
// FacultyID2 is required when the course is a lab (the co-teacher) and must
// be empty for theory courses.
type CreateCourseMappingRequest struct {
	SemesterID string  `json:"semester_id" validate:"required"`
	CourseID   string  `json:"course_id" validate:"required"`
	FacultyID  string  `json:"faculty_id" validate:"required"`
	FacultyID2 *string `json:"faculty_id_2"`
}

// CourseMappingService manages semester/course/faculty assignments that the
// scheduler derives gene templates from.
type CourseMappingService struct {
	mappings  courseMappingRepo
	semesters mappingSemesterReader
	courses   mappingCourseReader
	faculty   mappingFacultyReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseMappingService constructs a CourseMappingService.
func NewCourseMappingService(
	mappings courseMappingRepo,
	semesters mappingSemesterReader,
	courses mappingCourseReader,
	faculty mappingFacultyReader,
	validate *validator.Validate,
	logger *zap.Logger,
) *CourseMappingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseMappingService{
		mappings:  mappings,
		semesters: semesters,
		courses:   courses,
		faculty:   faculty,
		validator: validate,
		logger:    logger,
	}
}

// List returns course mappings matching filter criteria.
func (s *CourseMappingService) List(ctx context.Context, filter models.CourseMappingFilter) ([]models.CourseMappingDetail, *models.Pagination, error) {
	mappings, total, err := s.mappings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course mappings")
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
	return mappings, pagination, nil
}

// ListByFaculty returns every mapping a faculty member teaches.
func (s *CourseMappingService) ListByFaculty(ctx context.Context, facultyID string) ([]models.CourseMapping, error) {
	if _, err := s.faculty.FindByID(ctx, facultyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	mappings, err := s.mappings.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty mappings")
	}
	return mappings, nil
}

// Create links a course to teaching faculty within a semester.
func (s *CourseMappingService) Create(ctx context.Context, req CreateCourseMappingRequest) (*models.CourseMapping, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course mapping payload")
	}

	if _, err := s.semesters.FindByID(ctx, req.SemesterID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if _, err := s.faculty.FindByID(ctx, req.FacultyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	if course.Type == models.CourseTypeLab {
		if req.FacultyID2 == nil || *req.FacultyID2 == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "lab courses require a co-teaching faculty_id_2")
		}
		if _, err := s.faculty.FindByID(ctx, *req.FacultyID2); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "co-teaching faculty not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load co-teaching faculty")
		}
	} else if req.FacultyID2 != nil && *req.FacultyID2 != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "theory courses cannot have a co-teaching faculty_id_2")
	}

	exists, err := s.mappings.Exists(ctx, req.SemesterID, req.CourseID, req.FacultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check mapping uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "mapping already exists for this semester, course and faculty")
	}

	mapping := &models.CourseMapping{
		SemesterID: req.SemesterID,
		CourseID:   req.CourseID,
		FacultyID:  req.FacultyID,
		FacultyID2: req.FacultyID2,
	}
	if err := s.mappings.Create(ctx, mapping); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course mapping")
	}
	return mapping, nil
}

// Delete removes a course mapping.
func (s *CourseMappingService) Delete(ctx context.Context, id string) error {
	if _, err := s.mappings.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course mapping not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course mapping")
	}
	if err := s.mappings.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course mapping not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course mapping")
	}
	return nil
}
