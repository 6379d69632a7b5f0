package models

import "time"

// PreferenceKind distinguishes a hard block from a soft preference.
type PreferenceKind string

const (
	PreferenceBlocked   PreferenceKind = "BLOCKED"
	PreferencePreferred PreferenceKind = "PREFERRED"
)

// FacultyPreference describes a single day/period-range window a faculty
// member either cannot teach in (blocked) or would like to teach in
// (preferred). One row per window.
type FacultyPreference struct {
	ID          string         `db:"id" json:"id"`
	FacultyID   string         `db:"faculty_id" json:"faculty_id"`
	DayOfWeek   int            `db:"day_of_week" json:"day_of_week"`
	PeriodStart int            `db:"period_start" json:"period_start"`
	PeriodEnd   int            `db:"period_end" json:"period_end"`
	Kind        PreferenceKind `db:"kind" json:"kind"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// FacultyPreferenceFilter narrows listing queries.
type FacultyPreferenceFilter struct {
	FacultyID string
	Kind      PreferenceKind
	Page      int
	PageSize  int
}
