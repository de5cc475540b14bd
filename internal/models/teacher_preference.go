package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RestrictionLevel mirrors engine.RestrictionLevel: a MANDATORY window is the only
// window a teacher may be placed in, while a PREFERRED window is merely
// favoured and can still be violated at LOW severity.
type RestrictionLevel string

const (
	RestrictionMandatory RestrictionLevel = "MANDATORY"
	RestrictionPreferred RestrictionLevel = "PREFERRED"
)

// AssignmentRestriction is one entry of a teacher's availability rules for
// a single day, stored inside TeacherPreference.Unavailable. Periods lists
// the 1-indexed periods the restriction applies to.
type AssignmentRestriction struct {
	DayOfWeek     string           `json:"day_of_week"`
	Periods       []int            `json:"periods"`
	Level         RestrictionLevel `json:"level"`
	Reason        string           `json:"reason,omitempty"`
	DisplayOrder  int              `json:"display_order,omitempty"`
}

// TeacherPreference stores capacity and availability rules for a teacher.
// Unavailable holds a JSON-encoded []AssignmentRestriction, following the
// same flexible-column idiom SemesterSchedule.Meta uses for data that is
// written and read as a whole rather than queried column-by-column.
type TeacherPreference struct {
	ID             string         `db:"id" json:"id"`
	TeacherID      string         `db:"teacher_id" json:"teacher_id"`
	MaxLoadPerDay  int            `db:"max_load_per_day" json:"max_load_per_day"`
	MaxLoadPerWeek int            `db:"max_load_per_week" json:"max_load_per_week"`
	Unavailable    types.JSONText `db:"unavailable" json:"unavailable"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}
