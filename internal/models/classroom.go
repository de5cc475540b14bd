package models

import "time"

// Classroom is a (possibly multi-instance) special-purpose room, e.g. a
// science lab or a computer room. The teacher's schema predates this
// entity (schedules only ever carried a free-text Room label); this table
// backs engine.Classroom for subjects that require one.
type Classroom struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	Count     int       `db:"count" json:"count"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter captures supported filters for listing classrooms.
type ClassroomFilter struct {
	Type      string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
