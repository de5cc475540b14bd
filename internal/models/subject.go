package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Subject represents an academic subject, including the per-grade weekly
// hour load and classroom requirements the scheduling engine needs.
// WeeklyHours is stored as a JSON object mapping grade (as a string key,
// "0" for the default fallback) to the required weekly lesson count,
// following the same types.JSONText idiom TeacherPreference.Unavailable
// and SemesterSchedule.Meta already use for flexible, rarely-queried
// columns.
type Subject struct {
	ID                       string         `db:"id" json:"id"`
	Code                     string         `db:"code" json:"code"`
	Name                     string         `db:"name" json:"name"`
	Track                    string         `db:"track" json:"track"`
	SubjectGroup             string         `db:"subject_group" json:"subject_group"`
	Grades                   types.JSONText `db:"grades" json:"grades"`
	WeeklyHours              types.JSONText `db:"weekly_hours" json:"weekly_hours"`
	RequiresSpecialClassroom bool           `db:"requires_special_classroom" json:"requires_special_classroom"`
	ClassroomType            string         `db:"classroom_type" json:"classroom_type,omitempty"`
	CreatedAt                time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time      `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Track     string
	Group     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
