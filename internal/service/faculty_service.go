package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-adp-scheduler/pkg/errors"
)

type facultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	FindByEmail(ctx context.Context, email string) (*models.Faculty, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Faculty, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	ExistsByEmployeeCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, faculty *models.Faculty) error
	Update(ctx context.Context, faculty *models.Faculty) error
	Deactivate(ctx context.Context, id string) error
}

type facultyDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

// CreateFacultyRequest represents payload for creating faculty members.
type CreateFacultyRequest struct {
	DepartmentID string  `json:"department_id" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	FullName     string  `json:"full_name" validate:"required"`
	EmployeeCode *string `json:"employee_code" validate:"omitempty,max=50"`
	Phone        *string `json:"phone" validate:"omitempty,max=50"`
}

// UpdateFacultyRequest represents payload for updating faculty members.
type UpdateFacultyRequest struct {
	DepartmentID string  `json:"department_id" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	FullName     string  `json:"full_name" validate:"required"`
	EmployeeCode *string `json:"employee_code" validate:"omitempty,max=50"`
	Phone        *string `json:"phone" validate:"omitempty,max=50"`
	Active       *bool   `json:"active"`
}

// FacultyService orchestrates faculty member operations.
type FacultyService struct {
	repo       facultyRepository
	department facultyDepartmentReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewFacultyService constructs a FacultyService.
func NewFacultyService(repo facultyRepository, department facultyDepartmentReader, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, department: department, validator: validate, logger: logger}
}

// List returns faculty members plus pagination data.
func (s *FacultyService) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, *models.Pagination, error) {
	faculty, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
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
	return faculty, pagination, nil
}

// Get returns a faculty member by id.
func (s *FacultyService) Get(ctx context.Context, id string) (*models.Faculty, error) {
	faculty, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	return faculty, nil
}

// Create registers a new faculty member.
func (s *FacultyService) Create(ctx context.Context, req CreateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	if err := s.ensureDepartmentExists(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueFields(ctx, req.Email, req.EmployeeCode, ""); err != nil {
		return nil, err
	}

	faculty := &models.Faculty{
		DepartmentID: req.DepartmentID,
		Email:        strings.TrimSpace(req.Email),
		FullName:     strings.TrimSpace(req.FullName),
		Active:       true,
	}
	faculty.EmployeeCode = normalizeOptional(req.EmployeeCode)
	faculty.Phone = normalizeOptional(req.Phone)

	if err := s.repo.Create(ctx, faculty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty")
	}
	return faculty, nil
}

// Update modifies an existing faculty member.
func (s *FacultyService) Update(ctx context.Context, id string, req UpdateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}

	faculty, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	if err := s.ensureDepartmentExists(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueFields(ctx, req.Email, req.EmployeeCode, id); err != nil {
		return nil, err
	}

	faculty.DepartmentID = req.DepartmentID
	faculty.Email = strings.TrimSpace(req.Email)
	faculty.FullName = strings.TrimSpace(req.FullName)
	faculty.EmployeeCode = normalizeOptional(req.EmployeeCode)
	faculty.Phone = normalizeOptional(req.Phone)
	if req.Active != nil {
		faculty.Active = *req.Active
	}

	if err := s.repo.Update(ctx, faculty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty")
	}
	return faculty, nil
}

// Deactivate marks a faculty member inactive.
func (s *FacultyService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate faculty")
	}
	return nil
}

func (s *FacultyService) ensureDepartmentExists(ctx context.Context, departmentID string) error {
	if s.department == nil {
		return nil
	}
	if _, err := s.department.FindByID(ctx, departmentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate department")
	}
	return nil
}

func (s *FacultyService) ensureUniqueFields(ctx context.Context, email string, employeeCode *string, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	if employeeCode != nil {
		trimmed := strings.TrimSpace(*employeeCode)
		if trimmed != "" {
			exists, err = s.repo.ExistsByEmployeeCode(ctx, trimmed, excludeID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check employee code uniqueness")
			}
			if exists {
				return appErrors.Clone(appErrors.ErrConflict, "employee code already used")
			}
		}
	}
	return nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
