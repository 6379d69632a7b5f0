package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SemesterScheduleStatus represents lifecycle phases for generated schedules.
type SemesterScheduleStatus string

const (
	SemesterScheduleStatusDraft     SemesterScheduleStatus = "DRAFT"
	SemesterScheduleStatusPublished SemesterScheduleStatus = "PUBLISHED"
	SemesterScheduleStatusArchived  SemesterScheduleStatus = "ARCHIVED"
)

// SemesterSchedule captures a versioned timetable proposal (a saved
// Chromosome) for a semester within a term. Meta carries the score, GA
// stats, and an id-keyed instance snapshot (department/semester/faculty/
// course names) sufficient to render the timetable without re-querying.
type SemesterSchedule struct {
	ID         string                 `db:"id" json:"id"`
	TermID     string                 `db:"term_id" json:"term_id"`
	SemesterID string                 `db:"semester_id" json:"semester_id"`
	Version    int                    `db:"version" json:"version"`
	Status     SemesterScheduleStatus `db:"status" json:"status"`
	Meta       types.JSONText         `db:"meta" json:"meta"`
	CreatedAt  time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time              `db:"updated_at" json:"updated_at"`
}

// SemesterScheduleSlot is a concrete gene placement inside a saved schedule:
// one row per (course, faculty, day, period) the course occupies. A lab
// session occupies two consecutive rows sharing the same CourseID/FacultyID.
type SemesterScheduleSlot struct {
	ID                 string    `db:"id" json:"id"`
	SemesterScheduleID string    `db:"semester_schedule_id" json:"semester_schedule_id"`
	DayOfWeek          int       `db:"day_of_week" json:"day_of_week"`
	TimeSlot           int       `db:"time_slot" json:"time_slot"`
	CourseID           string    `db:"course_id" json:"course_id"`
	FacultyID          string    `db:"faculty_id" json:"faculty_id"`
	FacultyID2         *string   `db:"faculty_id_2" json:"faculty_id_2,omitempty"`
	IsLab              bool      `db:"is_lab" json:"is_lab"`
	Room               *string   `db:"room" json:"room,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// SemesterScheduleSummary aggregates versions available for a term/semester pair.
type SemesterScheduleSummary struct {
	TermID     string                 `json:"term_id"`
	SemesterID string                 `json:"semester_id"`
	ActiveID   *string                `json:"active_id,omitempty"`
	Versions   []SemesterScheduleMeta `json:"versions"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// SemesterScheduleMeta represents lightweight metadata for list views.
type SemesterScheduleMeta struct {
	ID        string                 `json:"id"`
	Version   int                    `json:"version"`
	Status    SemesterScheduleStatus `json:"status"`
	Score     float64                `json:"score"`
	CreatedAt time.Time              `json:"created_at"`
}
