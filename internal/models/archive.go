package models

import "time"

// ArchiveScope constrains document visibility.
type ArchiveScope string

const (
	ArchiveScopeGlobal   ArchiveScope = "GLOBAL"
	ArchiveScopeTerm     ArchiveScope = "TERM"
	ArchiveScopeSemester ArchiveScope = "SEMESTER"
)

// ArchiveItem represents one archived document metadata row: a saved
// timetable export (CSV/PDF render of a SemesterSchedule version).
type ArchiveItem struct {
	ID             string       `db:"id" json:"id"`
	Title          string       `db:"title" json:"title"`
	Category       string       `db:"category" json:"category"`
	Scope          ArchiveScope `db:"scope" json:"scope"`
	RefTermID      *string      `db:"ref_term_id" json:"refTermId,omitempty"`
	RefSemesterID  *string      `db:"ref_semester_id" json:"refSemesterId,omitempty"`
	FilePath       string       `db:"file_path" json:"filePath"`
	MimeType       string       `db:"mime_type" json:"mimeType"`
	SizeBytes      int64        `db:"size_bytes" json:"sizeBytes"`
	UploadedBy     string       `db:"uploaded_by" json:"uploadedBy"`
	UploadedAt     time.Time    `db:"uploaded_at" json:"uploadedAt"`
	DeletedAt      *time.Time   `db:"deleted_at" json:"deletedAt,omitempty"`
}

// ArchiveFilter narrows listing queries by metadata fields.
type ArchiveFilter struct {
	Scope          ArchiveScope
	Category       string
	TermID         string
	SemesterID     string
	IncludeDeleted bool
	Limit          int
	Offset         int
}
