package models

import "time"

// CourseMapping links a course to the faculty teaching it within a semester.
// A mapping is a lab mapping iff its course's type is CourseTypeLab and
// FacultyID2 is set (the co-teacher), otherwise it is a theory mapping.
type CourseMapping struct {
	ID         string    `db:"id" json:"id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	FacultyID  string    `db:"faculty_id" json:"faculty_id"`
	FacultyID2 *string   `db:"faculty_id_2" json:"faculty_id_2,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CourseMappingDetail enriches a mapping with descriptive fields for display.
type CourseMappingDetail struct {
	CourseMapping
	SemesterName string  `db:"semester_name" json:"semester_name"`
	CourseName   string  `db:"course_name" json:"course_name"`
	CourseCode   string  `db:"course_code" json:"course_code"`
	FacultyName  string  `db:"faculty_name" json:"faculty_name"`
	FacultyName2 *string `db:"faculty_name_2" json:"faculty_name_2,omitempty"`
}

// CourseMappingFilter narrows listing queries.
type CourseMappingFilter struct {
	SemesterID string
	CourseID   string
	FacultyID  string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
