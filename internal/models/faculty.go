package models

import "time"

// Faculty represents an instructor record.
type Faculty struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	EmployeeCode *string   `db:"employee_code" json:"employee_code,omitempty"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FacultyFilter captures filtering options for listing faculty.
type FacultyFilter struct {
	DepartmentID string
	Search       string
	Active       *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
