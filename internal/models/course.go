package models

import "time"

// CourseType distinguishes lecture-style sessions from lab sessions, which
// differ in period bounds and penalty shape throughout the scheduler.
type CourseType string

const (
	CourseTypeTheory CourseType = "THEORY"
	CourseTypeLab    CourseType = "LAB"
)

// Course represents an academic course offered within a department.
type Course struct {
	ID          string     `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	Name        string     `db:"name" json:"name"`
	WeeklyHours int        `db:"weekly_hours" json:"weekly_hours"`
	Type        CourseType `db:"type" json:"type"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures supported filters for listing courses.
type CourseFilter struct {
	Type      CourseType
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
