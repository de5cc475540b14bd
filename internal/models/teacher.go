package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	NIP       *string   `db:"nip" json:"nip,omitempty"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Expertise *string   `db:"expertise" json:"expertise,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TeacherLoad is the per-term view of what a teacher is qualified and
// assigned to teach, derived from TeacherAssignment rows: the distinct
// subjects and grades a teacher covers for a given term. This is the
// persistence-shaped ancestor of engine.Teacher.SubjectIDs/Grades.
type TeacherLoad struct {
	TeacherID  string `db:"teacher_id" json:"teacher_id"`
	SubjectIDs []string
	Grades     []int
}
