package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignStrictCommitsAssignment(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(2, 0))
	require.NoError(t, err)
	slot := grid.At(1, "A", Monday, 1)
	subject := &Subject{ID: "MATH"}
	candidate := Candidate{TeacherID: "T1", SubjectID: "MATH", ClassGrade: 1, ClassSection: "A"}

	ok := AssignStrict(slot, candidate, subject, grid)
	require.True(t, ok)
	assert.Equal(t, "T1", slot.TeacherID)
	assert.Equal(t, "MATH", slot.SubjectID)
	assert.NotNil(t, grid.TeacherBusyAt("T1", Monday, 1))
}

func TestAssignStrictRefusesWhenNoClassroomAvailable(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(2, 0))
	require.NoError(t, err)
	slot := grid.At(1, "A", Monday, 1)
	subject := &Subject{ID: "SCI", RequiresSpecialClassroom: true, ClassroomType: "LAB"}
	candidate := Candidate{TeacherID: "T1", SubjectID: "SCI", ClassGrade: 1, ClassSection: "A"}

	ok := AssignStrict(slot, candidate, subject, grid)
	assert.False(t, ok)
	assert.True(t, slot.Empty())
}

func TestAssignStrictRefusesNonEmptySlot(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(2, 0))
	require.NoError(t, err)
	slot := grid.At(1, "A", Monday, 1)
	subject := &Subject{ID: "MATH"}
	first := Candidate{TeacherID: "T1", SubjectID: "MATH", ClassGrade: 1, ClassSection: "A"}
	require.True(t, AssignStrict(slot, first, subject, grid))

	second := Candidate{TeacherID: "T2", SubjectID: "MATH", ClassGrade: 1, ClassSection: "A"}
	assert.False(t, AssignStrict(slot, second, subject, grid))
	assert.Equal(t, "T1", slot.TeacherID)
}

func TestAssignTolerantRecordsViolations(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(2, 0))
	require.NoError(t, err)
	slot := grid.At(1, "A", Monday, 1)
	subject := &Subject{ID: "MATH"}
	candidate := Candidate{TeacherID: "T1", SubjectID: "MATH", ClassGrade: 1, ClassSection: "A"}

	violations := []Violation{{Type: "TEACHER_CONFLICT", Severity: SeverityMedium}}
	AssignTolerant(slot, candidate, subject, grid, violations)

	assert.Equal(t, "T1", slot.TeacherID)
	assert.True(t, slot.HasViolation)
	assert.Equal(t, SeverityMedium, slot.ViolationSeverity)
	assert.Len(t, slot.Violations, 1)
}

func TestAssignTolerantAddsClassroomConflictWhenNoneAvailable(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(2, 0))
	require.NoError(t, err)
	slot := grid.At(1, "A", Monday, 1)
	subject := &Subject{ID: "SCI", RequiresSpecialClassroom: true, ClassroomType: "LAB"}
	candidate := Candidate{TeacherID: "T1", SubjectID: "SCI", ClassGrade: 1, ClassSection: "A"}

	AssignTolerant(slot, candidate, subject, grid, nil)

	assert.True(t, slot.HasViolation)
	assert.Empty(t, slot.ClassroomID)
	require.Len(t, slot.Violations, 1)
	assert.Equal(t, "CLASSROOM_CONFLICT", slot.Violations[0].Type)
}

func TestUnassignClearsEverything(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(2, 0))
	require.NoError(t, err)
	slot := grid.At(1, "A", Monday, 1)
	subject := &Subject{ID: "MATH"}
	candidate := Candidate{TeacherID: "T1", SubjectID: "MATH", ClassGrade: 1, ClassSection: "A"}
	require.True(t, AssignStrict(slot, candidate, subject, grid))

	Unassign(slot, grid)

	assert.True(t, slot.Empty())
	assert.Empty(t, slot.ClassroomID)
	assert.False(t, slot.HasViolation)
	assert.Nil(t, slot.Violations)
	assert.Equal(t, SeverityNone, slot.ViolationSeverity)
	assert.Nil(t, grid.TeacherBusyAt("T1", Monday, 1))
}
