package dto

import "time"

// GenerateScheduleRequest instructs the generator to solve a term's full
// timetable across every class. Mode selects the solver strategy: STRICT
// backtracks on unsatisfiable placements and returns the best partial grid
// when it cannot place everything, TOLERANT relaxes soft constraints to
// keep filling the grid.
type GenerateScheduleRequest struct {
	TermID         string `json:"termId" validate:"required"`
	Mode           string `json:"mode" validate:"omitempty,oneof=STRICT TOLERANT"`
	BacktrackLimit int    `json:"backtrackLimit" validate:"omitempty,min=1"`
}

// ScheduleSlotProposal is one placed (or still-empty) grid cell surfaced
// back to the caller.
type ScheduleSlotProposal struct {
	ClassGrade   int     `json:"classGrade"`
	ClassSection string  `json:"classSection"`
	DayOfWeek    string  `json:"dayOfWeek"`
	TimeSlot     int     `json:"timeSlot"`
	SubjectID    string  `json:"subjectId"`
	TeacherID    string  `json:"teacherId"`
	ClassroomID  *string `json:"classroomId,omitempty"`
	Severity     string  `json:"severity,omitempty"`
}

// ProposalConflict reports a violation the engine recorded against a slot.
type ProposalConflict struct {
	ClassGrade   int    `json:"classGrade"`
	ClassSection string `json:"classSection"`
	DayOfWeek    string `json:"dayOfWeek"`
	TimeSlot     int    `json:"timeSlot"`
	Type         string `json:"type"`
	Severity     string `json:"severity"`
	Message      string `json:"message"`
	Reason       string `json:"reason,omitempty"`
}

// ScheduleImprovementStats mirrors engine.Statistics for the HTTP boundary.
type ScheduleImprovementStats struct {
	TotalSlots           int           `json:"totalSlots"`
	AssignedSlots        int           `json:"assignedSlots"`
	UnassignedSlots      int           `json:"unassignedSlots"`
	ConstraintViolations int           `json:"constraintViolations"`
	AssignmentRate       float64       `json:"assignmentRate"`
	BacktrackCount       int           `json:"backtrackCount"`
	Interrupted          bool          `json:"interrupted"`
	GenerationTime       time.Duration `json:"generationTimeNs"`
}

// GenerateScheduleResponse returns the built timetable proposal alongside
// its engine-reported status and statistics.
type GenerateScheduleResponse struct {
	ProposalID string                   `json:"proposalId"`
	Status     string                   `json:"status"`
	Slots      []ScheduleSlotProposal   `json:"slots"`
	Conflicts  []ProposalConflict       `json:"conflicts"`
	Stats      ScheduleImprovementStats `json:"stats"`
}

// SaveScheduleRequest persists one cached proposal's slots for a single
// class into a new semester schedule version.
type SaveScheduleRequest struct {
	ProposalID    string `json:"proposalId" validate:"required"`
	ClassID       string `json:"classId" validate:"required"`
	CommitToDaily bool   `json:"commitToDaily"`
}

// SemesterScheduleQuery filters schedule summaries by class and term.
type SemesterScheduleQuery struct {
	TermID  string `form:"termId" json:"termId" validate:"required"`
	ClassID string `form:"classId" json:"classId" validate:"required"`
}
