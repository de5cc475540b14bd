package models

import "time"

// TermType represents the type of academic term (e.g. semester, trimester).
type TermType string

const (
	TermTypeSemester  TermType = "SEMESTER"
	TermTypeTrimester TermType = "TRIMESTER"
	TermTypeQuarter   TermType = "QUARTER"
)

// Term models an academic term within the institution calendar. A term
// owns its own daily period count, since a school's bell schedule (and
// whether Saturday carries periods at all) can change from one term to
// the next.
type Term struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Type            TermType  `db:"type" json:"type"`
	AcademicYear    string    `db:"academic_year" json:"academic_year"`
	StartDate       time.Time `db:"start_date" json:"start_date"`
	EndDate         time.Time `db:"end_date" json:"end_date"`
	DailyPeriods    int       `db:"daily_periods" json:"daily_periods"`
	SaturdayPeriods int       `db:"saturday_periods" json:"saturday_periods"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// TermFilter defines filters supported by list endpoints.
type TermFilter struct {
	AcademicYear string
	Type         TermType
	IsActive     *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
