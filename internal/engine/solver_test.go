package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifficultyOrdersByRequiredOverAvailable(t *testing.T) {
	grid, err := BuildGrid(SchoolSettings{
		Grades:          []int{1},
		ClassesPerGrade: map[int][]string{1: {"A"}},
		DailyPeriods:    4,
	})
	require.NoError(t, err)
	grid.RegisterTeachers([]Teacher{
		{ID: "light", Grades: []int{1}},
		{ID: "heavy", Grades: []int{1}},
	})
	candidates := []*Candidate{
		{TeacherID: "light", RequiredHours: 2},
		{TeacherID: "heavy", RequiredHours: 18},
	}
	scores := difficulty(candidates, grid)
	assert.Greater(t, scores["heavy"], scores["light"])
}

func TestSortByDifficultyIsStableOnTies(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(4, 0))
	require.NoError(t, err)
	grid.RegisterTeachers([]Teacher{{ID: "T1", Grades: []int{1}}})
	candidates := []*Candidate{
		{TeacherID: "T1", SubjectID: "A", RequiredHours: 2},
		{TeacherID: "T1", SubjectID: "B", RequiredHours: 2},
		{TeacherID: "T1", SubjectID: "C", RequiredHours: 2},
	}
	sortByDifficulty(candidates, grid, nil)
	assert.Equal(t, "A", candidates[0].SubjectID)
	assert.Equal(t, "B", candidates[1].SubjectID)
	assert.Equal(t, "C", candidates[2].SubjectID)
}

// mondayPeriodOneOnly pins a teacher to a single (day, period) for the
// whole week: Monday period 1, with every other weekday shut by MANDATORY
// restrictions. The grid always carries all five weekdays, so this is what
// makes several classes genuinely compete for one teacher.
func mondayPeriodOneOnly() []AssignmentRestriction {
	shutDay := func(d Day) AssignmentRestriction {
		return AssignmentRestriction{Day: d, RestrictedPeriods: map[int]bool{}, Level: Mandatory}
	}
	return []AssignmentRestriction{
		{Day: Monday, RestrictedPeriods: map[int]bool{1: true}, Level: Mandatory},
		shutDay(Tuesday), shutDay(Wednesday), shutDay(Thursday), shutDay(Friday),
	}
}

func TestSolverRespectsBacktrackLimit(t *testing.T) {
	// Three classes competing for a single teacher who can only teach at one
	// (day, period) force the strict solver into backtracking exactly once
	// before the limit of 1 stops it.
	settings := SchoolSettings{
		Grades:          []int{1},
		ClassesPerGrade: map[int][]string{1: {"A", "B", "C"}},
		DailyPeriods:    1,
	}
	teachers := []Teacher{{ID: "T1", SubjectIDs: []string{"MATH"}, Grades: []int{1}, Restrictions: mondayPeriodOneOnly()}}
	subjects := []Subject{{ID: "MATH", Grades: []int{1}, WeeklyHours: map[int]int{1: 1}}}

	out, err := Solve(Input{
		Settings: settings,
		Teachers: teachers,
		Subjects: subjects,
		Mode:     StrictMode,
		Options:  Options{BacktrackLimit: 1},
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, out.Statistics.AssignedSlots, 1)
}

func TestSolverHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Solve(Input{
		Settings: settingsSingleGradeA(2, 0),
		Teachers: []Teacher{{ID: "T1", SubjectIDs: []string{"MATH"}, Grades: []int{1}}},
		Subjects: []Subject{{ID: "MATH", Grades: []int{1}, WeeklyHours: map[int]int{1: 2}}},
		Mode:     StrictMode,
		Options:  Options{Context: ctx},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInterrupted, out.Status)
}

func TestSolverHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	out, err := Solve(Input{
		Settings: settingsSingleGradeA(2, 0),
		Teachers: []Teacher{{ID: "T1", SubjectIDs: []string{"MATH"}, Grades: []int{1}}},
		Subjects: []Subject{{ID: "MATH", Grades: []int{1}, WeeklyHours: map[int]int{1: 2}}},
		Mode:     StrictMode,
		Options:  Options{Context: ctx},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInterrupted, out.Status)
}

type countingRecorder struct{ count int }

func (r *countingRecorder) ObserveBacktrack() { r.count++ }

func TestSolverReportsBacktracksToMetricsRecorder(t *testing.T) {
	settings := SchoolSettings{
		Grades:          []int{1},
		ClassesPerGrade: map[int][]string{1: {"A", "B"}},
		DailyPeriods:    1,
	}
	teachers := []Teacher{{ID: "T1", SubjectIDs: []string{"MATH"}, Grades: []int{1}, Restrictions: mondayPeriodOneOnly()}}
	subjects := []Subject{{ID: "MATH", Grades: []int{1}, WeeklyHours: map[int]int{1: 1}}}
	recorder := &countingRecorder{}

	out, err := Solve(Input{
		Settings: settings,
		Teachers: teachers,
		Subjects: subjects,
		Mode:     StrictMode,
		Options:  Options{Metrics: recorder},
	})
	require.NoError(t, err)
	assert.Equal(t, out.Statistics.BacktrackCount, recorder.count)
	assert.Greater(t, recorder.count, 0)
}

func TestTolerantModeNeverLeavesCandidateUnservedWhileSlotFree(t *testing.T) {
	settings := settingsSingleGradeA(4, 0)
	teachers := []Teacher{{ID: "T1", SubjectIDs: []string{"MATH"}, Grades: []int{1}}}
	subjects := []Subject{{ID: "MATH", Grades: []int{1}, WeeklyHours: map[int]int{1: 4}}}

	out, err := Solve(Input{Settings: settings, Teachers: teachers, Subjects: subjects, Mode: TolerantMode})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Statistics.AssignedSlots)
	// UnassignedSlots counts the whole 20-slot grid, not just the candidate's hours.
	assert.Equal(t, 16, out.Statistics.UnassignedSlots)
}
