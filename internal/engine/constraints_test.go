package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeacherConflictChecker(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(2, 0))
	require.NoError(t, err)

	busySlot := grid.At(1, "A", Monday, 1)
	grid.markTeacher("T1", busySlot)

	checker := TeacherConflictChecker{}
	result := checker.Check(busySlot, Candidate{TeacherID: "T1"}, grid)
	assert.True(t, result.OK, "the slot already holding the assignment is not a conflict with itself")

	otherGrid, err := BuildGrid(SchoolSettings{
		Grades:          []int{1},
		ClassesPerGrade: map[int][]string{1: {"A", "B"}},
		DailyPeriods:    2,
	})
	require.NoError(t, err)
	otherGrid.markTeacher("T1", otherGrid.At(1, "A", Monday, 1))
	result = checker.Check(otherGrid.At(1, "B", Monday, 1), Candidate{TeacherID: "T1"}, otherGrid)
	assert.False(t, result.OK)
	assert.Equal(t, SeverityMedium, result.Violation.Severity)
}

func TestClassroomConflictCheckerIsAlwaysOK(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(2, 0))
	require.NoError(t, err)
	checker := ClassroomConflictChecker{}
	result := checker.Check(grid.At(1, "A", Monday, 1), Candidate{}, grid)
	assert.True(t, result.OK)
}

func TestAssignmentRestrictionCheckerMandatory(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(3, 0))
	require.NoError(t, err)
	grid.RegisterTeachers([]Teacher{
		{
			ID: "T1",
			Restrictions: []AssignmentRestriction{
				{Day: Monday, RestrictedPeriods: map[int]bool{1: true}, Level: Mandatory},
			},
		},
	})
	checker := AssignmentRestrictionChecker{}

	inside := checker.Check(grid.At(1, "A", Monday, 1), Candidate{TeacherID: "T1"}, grid)
	assert.True(t, inside.OK)

	outside := checker.Check(grid.At(1, "A", Monday, 2), Candidate{TeacherID: "T1"}, grid)
	assert.False(t, outside.OK)
	assert.Equal(t, SeverityMedium, outside.Violation.Severity)

	otherDay := checker.Check(grid.At(1, "A", Tuesday, 1), Candidate{TeacherID: "T1"}, grid)
	assert.True(t, otherDay.OK, "restriction on Monday does not constrain Tuesday")
}

func TestAssignmentRestrictionCheckerPreferredIsLowSeverity(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(3, 0))
	require.NoError(t, err)
	grid.RegisterTeachers([]Teacher{
		{
			ID: "T1",
			Restrictions: []AssignmentRestriction{
				{Day: Monday, RestrictedPeriods: map[int]bool{1: true}, Level: Preferred},
			},
		},
	})
	checker := AssignmentRestrictionChecker{}

	outside := checker.Check(grid.At(1, "A", Monday, 2), Candidate{TeacherID: "T1"}, grid)
	assert.False(t, outside.OK)
	assert.Equal(t, SeverityLow, outside.Violation.Severity)

	inside := checker.Check(grid.At(1, "A", Monday, 1), Candidate{TeacherID: "T1"}, grid)
	assert.True(t, inside.OK)
}

func TestEvaluateAggregatesViolations(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(2, 0))
	require.NoError(t, err)
	grid.RegisterTeachers([]Teacher{
		{
			ID: "T1",
			Restrictions: []AssignmentRestriction{
				{Day: Monday, RestrictedPeriods: map[int]bool{}, Level: Mandatory},
			},
		},
	})
	slot := grid.At(1, "A", Monday, 1)
	grid.markTeacher("T1", grid.At(1, "A", Monday, 2)) // busy elsewhere, not a conflict here
	pipeline := DefaultPipeline()

	okAll, violations := Evaluate(pipeline, slot, Candidate{TeacherID: "T1"}, grid)
	assert.False(t, okAll)
	require.Len(t, violations, 1)
	assert.Equal(t, "MANDATORY_RESTRICTION", violations[0].Type)
}

func TestHighestSeverity(t *testing.T) {
	assert.Equal(t, SeverityNone, HighestSeverity(nil))
	assert.Equal(t, SeverityHigh, HighestSeverity([]Violation{
		{Severity: SeverityLow},
		{Severity: SeverityHigh},
		{Severity: SeverityMedium},
	}))
}
