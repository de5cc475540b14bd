package models

import "time"

// Class represents an academic class: one grade/section pair taught as a
// unit, e.g. grade 10 section A. Grade is kept as the free-text column the
// rest of the schema already uses (parsed to an int by the service layer
// when building engine input); Section is the new discriminator that lets
// more than one class share a grade.
type Class struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Grade             string    `db:"grade" json:"grade"`
	Section           string    `db:"section" json:"section"`
	Track             string    `db:"track" json:"track"`
	HomeroomTeacherID *string   `db:"homeroom_teacher_id" json:"homeroom_teacher_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with optional homeroom teacher information.
type ClassDetail struct {
	Class
	HomeroomTeacherName *string `db:"homeroom_teacher_name" json:"homeroom_teacher_name,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Grade     string
	Track     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
