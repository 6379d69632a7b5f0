package models

import "time"

// Semester represents a numbered semester group within a term — the cohort
// a weekly timetable is built for and the grouping the scheduler collides
// classes against.
type Semester struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	Number    int       `db:"number" json:"number"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SemesterFilter defines filter criteria for listing semesters.
type SemesterFilter struct {
	TermID    string
	Number    int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
