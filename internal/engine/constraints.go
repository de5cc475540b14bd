package engine

// CheckResult is the verdict of one Checker evaluation.
type CheckResult struct {
	OK        bool
	Violation Violation
}

func ok() CheckResult { return CheckResult{OK: true} }

func rejected(kind string, severity Severity, message, reason string) CheckResult {
	return CheckResult{
		OK: false,
		Violation: Violation{
			Type:     kind,
			Severity: severity,
			Message:  message,
			Reason:   reason,
		},
	}
}

// Checker is the pluggable predicate of §4.D: a pure, side-effect-free
// function over a prospective placement.
type Checker interface {
	Check(slot *Slot, candidate Candidate, grid *Grid) CheckResult
	Name() string
}

// DefaultPipeline returns the three built-in checkers in the fixed order
// the spec requires, followed by any caller-supplied extras.
func DefaultPipeline(extra ...Checker) []Checker {
	pipeline := []Checker{
		TeacherConflictChecker{},
		ClassroomConflictChecker{},
		AssignmentRestrictionChecker{},
	}
	return append(pipeline, extra...)
}

// TeacherConflictChecker rejects a placement when candidate.TeacherID is
// already committed elsewhere at the same (day, period).
type TeacherConflictChecker struct{}

func (TeacherConflictChecker) Name() string { return "teacher-conflict" }

func (TeacherConflictChecker) Check(slot *Slot, candidate Candidate, grid *Grid) CheckResult {
	busy := grid.TeacherBusyAt(candidate.TeacherID, slot.Day, slot.Period)
	if busy == nil || busy == slot {
		return ok()
	}
	return rejected(
		"TEACHER_CONFLICT",
		SeverityMedium,
		"teacher "+candidate.TeacherID+" is already assigned at this day/period",
		"conflicting slot: grade "+sectionLabel(busy)+" at "+string(busy.Day),
	)
}

func sectionLabel(s *Slot) string {
	return s.ClassSection
}

// ClassroomConflictChecker is a conservative no-op per §4.D / §9: classroom
// contention is resolved and enforced exclusively by the Classroom Resolver
// at commit time, not strengthened here.
type ClassroomConflictChecker struct{}

func (ClassroomConflictChecker) Name() string { return "classroom-conflict" }

func (ClassroomConflictChecker) Check(slot *Slot, candidate Candidate, grid *Grid) CheckResult {
	return ok()
}

// AssignmentRestrictionChecker enforces MANDATORY restrictions as hard
// rejections and PREFERRED restrictions as LOW-severity soft violations
// when the candidate's teacher would be placed outside the preferred
// window, per the Open Question decision in SPEC_FULL.md.
type AssignmentRestrictionChecker struct{}

func (AssignmentRestrictionChecker) Name() string { return "assignment-restriction" }

func (AssignmentRestrictionChecker) Check(slot *Slot, candidate Candidate, grid *Grid) CheckResult {
	teacher := grid.Teachers[candidate.TeacherID]
	if teacher == nil {
		return ok()
	}
	for _, r := range teacher.Restrictions {
		if r.Day != slot.Day {
			continue
		}
		if r.allows(slot.Period) {
			continue
		}
		if r.Level == Mandatory {
			return rejected(
				"MANDATORY_RESTRICTION",
				SeverityMedium,
				"teacher "+teacher.ID+" is restricted to other periods on "+string(r.Day),
				r.Reason,
			)
		}
		return rejected(
			"PREFERRED_RESTRICTION",
			SeverityLow,
			"teacher "+teacher.ID+" would prefer a different period on "+string(r.Day),
			r.Reason,
		)
	}
	return ok()
}

// Evaluate runs every checker in pipeline against (slot, candidate, grid)
// and returns the combined verdict: ok if every checker passed, otherwise
// the list of violations from every checker that rejected.
func Evaluate(pipeline []Checker, slot *Slot, candidate Candidate, grid *Grid) (bool, []Violation) {
	var violations []Violation
	allOK := true
	for _, c := range pipeline {
		result := c.Check(slot, candidate, grid)
		if !result.OK {
			allOK = false
			violations = append(violations, result.Violation)
		}
	}
	return allOK, violations
}

// HighestSeverity returns the most severe entry among violations, or
// SeverityNone if violations is empty.
func HighestSeverity(violations []Violation) Severity {
	max := SeverityNone
	for _, v := range violations {
		if v.Severity > max {
			max = v.Severity
		}
	}
	return max
}
