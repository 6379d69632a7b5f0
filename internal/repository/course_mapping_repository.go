package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
)

// CourseMappingRepository persists semester/course/faculty mappings.
type CourseMappingRepository struct {
	db *sqlx.DB
}

// NewCourseMappingRepository constructs the repository.
func NewCourseMappingRepository(db *sqlx.DB) *CourseMappingRepository {
	return &CourseMappingRepository{db: db}
}

// List returns mappings matching filter criteria, enriched for display.
func (r *CourseMappingRepository) List(ctx context.Context, filter models.CourseMappingFilter) ([]models.CourseMappingDetail, int, error) {
	base := `FROM course_mappings cm
JOIN semesters se ON se.id = cm.semester_id
JOIN courses c ON c.id = cm.course_id
JOIN faculty f ON f.id = cm.faculty_id
LEFT JOIN faculty f2 ON f2.id = cm.faculty_id_2
WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.SemesterID != "" {
		conditions = append(conditions, fmt.Sprintf("cm.semester_id = $%d", len(args)+1))
		args = append(args, filter.SemesterID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("cm.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.FacultyID != "" {
		conditions = append(conditions, fmt.Sprintf("(cm.faculty_id = $%d OR cm.faculty_id_2 = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.FacultyID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]string{
		"created_at":  "cm.created_at",
		"course_name": "c.name",
		"faculty_name": "f.full_name",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "cm.created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT cm.id, cm.semester_id, cm.course_id, cm.faculty_id, cm.faculty_id_2, cm.created_at,
		se.name AS semester_name, c.name AS course_name, c.code AS course_code,
		f.full_name AS faculty_name, f2.full_name AS faculty_name_2
		%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)
	var mappings []models.CourseMappingDetail
	if err := r.db.SelectContext(ctx, &mappings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list course mappings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count course mappings: %w", err)
	}

	return mappings, total, nil
}

// ListBySemester returns every mapping for a semester, used by the scheduler
// to derive gene templates from an instance.
func (r *CourseMappingRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.CourseMapping, error) {
	const query = `SELECT id, semester_id, course_id, faculty_id, faculty_id_2, created_at FROM course_mappings WHERE semester_id = $1`
	var mappings []models.CourseMapping
	if err := r.db.SelectContext(ctx, &mappings, query, semesterID); err != nil {
		return nil, fmt.Errorf("list course mappings by semester: %w", err)
	}
	return mappings, nil
}

// ListByFaculty returns every mapping a faculty member teaches, used to
// resolve which semesters/terms an archive scoped to that faculty's
// teaching load is visible to.
func (r *CourseMappingRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.CourseMapping, error) {
	const query = `SELECT id, semester_id, course_id, faculty_id, faculty_id_2, created_at FROM course_mappings
	WHERE faculty_id = $1 OR faculty_id_2 = $1`
	var mappings []models.CourseMapping
	if err := r.db.SelectContext(ctx, &mappings, query, facultyID); err != nil {
		return nil, fmt.Errorf("list course mappings by faculty: %w", err)
	}
	return mappings, nil
}

// FindByID fetches a single mapping.
func (r *CourseMappingRepository) FindByID(ctx context.Context, id string) (*models.CourseMapping, error) {
	const query = `SELECT id, semester_id, course_id, faculty_id, faculty_id_2, created_at FROM course_mappings WHERE id = $1`
	var mapping models.CourseMapping
	if err := r.db.GetContext(ctx, &mapping, query, id); err != nil {
		return nil, err
	}
	return &mapping, nil
}

// Exists checks if a semester-course-faculty tuple is already mapped.
func (r *CourseMappingRepository) Exists(ctx context.Context, semesterID, courseID, facultyID string) (bool, error) {
	const query = `SELECT 1 FROM course_mappings WHERE semester_id = $1 AND course_id = $2 AND faculty_id = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, semesterID, courseID, facultyID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course mapping: %w", err)
	}
	return true, nil
}

// HasFacultyAccess reports whether a faculty member teaches into a semester,
// either as primary or secondary (lab co-teacher) faculty.
func (r *CourseMappingRepository) HasFacultyAccess(ctx context.Context, facultyID, semesterID string) (bool, error) {
	const query = `SELECT 1 FROM course_mappings WHERE semester_id = $1 AND (faculty_id = $2 OR faculty_id_2 = $2) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, semesterID, facultyID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check faculty course mapping access: %w", err)
	}
	return true, nil
}

// Create inserts a new mapping.
func (r *CourseMappingRepository) Create(ctx context.Context, mapping *models.CourseMapping) error {
	if mapping.ID == "" {
		mapping.ID = uuid.NewString()
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_mappings (id, semester_id, course_id, faculty_id, faculty_id_2, created_at)
		VALUES (:id, :semester_id, :course_id, :faculty_id, :faculty_id_2, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mapping); err != nil {
		return fmt.Errorf("create course mapping: %w", err)
	}
	return nil
}

// Delete removes a mapping by id.
func (r *CourseMappingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM course_mappings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course mapping: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted mapping rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByFaculty returns how many mappings reference a given faculty member
// (as either primary or co-teaching faculty).
func (r *CourseMappingRepository) CountByFaculty(ctx context.Context, facultyID string) (int, error) {
	const query = `SELECT COUNT(*) FROM course_mappings WHERE faculty_id = $1 OR faculty_id_2 = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, facultyID); err != nil {
		return 0, fmt.Errorf("count course mappings by faculty: %w", err)
	}
	return count, nil
}
