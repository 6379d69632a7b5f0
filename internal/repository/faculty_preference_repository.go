package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
)

// FacultyPreferenceRepository persists faculty preference windows.
type FacultyPreferenceRepository struct {
	db *sqlx.DB
}

// NewFacultyPreferenceRepository constructs the repository.
func NewFacultyPreferenceRepository(db *sqlx.DB) *FacultyPreferenceRepository {
	return &FacultyPreferenceRepository{db: db}
}

// ListByFaculty returns every preference window declared by a faculty member.
func (r *FacultyPreferenceRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.FacultyPreference, error) {
	const query = `SELECT id, faculty_id, day_of_week, period_start, period_end, kind, created_at
		FROM faculty_preferences WHERE faculty_id = $1 ORDER BY day_of_week ASC, period_start ASC`
	var prefs []models.FacultyPreference
	if err := r.db.SelectContext(ctx, &prefs, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty preferences: %w", err)
	}
	return prefs, nil
}

// ListBySemester returns every preference window for faculty teaching within
// a semester, the shape the scheduler needs to build an Instance.
func (r *FacultyPreferenceRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.FacultyPreference, error) {
	const query = `SELECT DISTINCT fp.id, fp.faculty_id, fp.day_of_week, fp.period_start, fp.period_end, fp.kind, fp.created_at
		FROM faculty_preferences fp
		JOIN course_mappings cm ON cm.faculty_id = fp.faculty_id OR cm.faculty_id_2 = fp.faculty_id
		WHERE cm.semester_id = $1
		ORDER BY fp.day_of_week ASC, fp.period_start ASC`
	var prefs []models.FacultyPreference
	if err := r.db.SelectContext(ctx, &prefs, query, semesterID); err != nil {
		return nil, fmt.Errorf("list faculty preferences by semester: %w", err)
	}
	return prefs, nil
}

// Create inserts a new preference window.
func (r *FacultyPreferenceRepository) Create(ctx context.Context, pref *models.FacultyPreference) error {
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO faculty_preferences (id, faculty_id, day_of_week, period_start, period_end, kind, created_at)
		VALUES (:id, :faculty_id, :day_of_week, :period_start, :period_end, :kind, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("create faculty preference: %w", err)
	}
	return nil
}

// Delete removes a single preference window.
func (r *FacultyPreferenceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM faculty_preferences WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete faculty preference: %w", err)
	}
	return nil
}

// DeleteByFaculty removes every preference window belonging to a faculty
// member, used when replacing a faculty member's declared windows wholesale.
func (r *FacultyPreferenceRepository) DeleteByFaculty(ctx context.Context, facultyID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM faculty_preferences WHERE faculty_id = $1`, facultyID); err != nil {
		return fmt.Errorf("delete faculty preferences by faculty: %w", err)
	}
	return nil
}
