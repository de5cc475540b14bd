package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsSingleGradeA(dailyPeriods, saturdayPeriods int) SchoolSettings {
	return SchoolSettings{
		Grades:          []int{1},
		ClassesPerGrade: map[int][]string{1: {"A"}},
		DailyPeriods:    dailyPeriods,
		SaturdayPeriods: saturdayPeriods,
	}
}

// S1 — Minimal feasible. SchoolSettings.Days() always enumerates all five
// weekdays regardless of dailyPeriods (model.go), so one section with
// dailyPeriods=1 has exactly 5 total slots, not dailyPeriods. weeklyHours
// is set to 5 here so the candidate saturates every one of them — the
// genuinely "minimal feasible" case, where nothing the solver needed
// to place goes unplaced and no grid slot is left idle.
func TestSolveS1MinimalFeasible(t *testing.T) {
	input := Input{
		Settings: settingsSingleGradeA(1, 0),
		Teachers: []Teacher{
			{ID: "T1", Name: "Teacher One", SubjectIDs: []string{"MATH"}, Grades: []int{1}},
		},
		Subjects: []Subject{
			{ID: "MATH", Name: "Math", Grades: []int{1}, WeeklyHours: map[int]int{1: 5}},
		},
		Mode: StrictMode,
	}

	out, err := Solve(input)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, out.Status)
	assert.Equal(t, 5, out.Statistics.TotalSlots)
	assert.Equal(t, 5, out.Statistics.AssignedSlots)
	assert.Equal(t, 0, out.Statistics.UnassignedSlots)

	for _, slot := range out.Timetable.AllSlots() {
		require.False(t, slot.Empty())
		assert.Equal(t, "T1", slot.TeacherID)
		assert.Equal(t, "MATH", slot.SubjectID)
		assert.Empty(t, slot.ClassroomID)
		assert.Empty(t, slot.Violations)
	}
}

// S2 — Teacher conflict forced. Two sections sharing one unrestricted
// teacher never actually collide on the fixed five-weekday grid — T1
// could teach A on Monday and B on Tuesday with room to spare. Forcing
// the single-slot conflict the scenario is about means pinning T1's
// availability down to one (day, period) for the whole week: MANDATORY
// restrictions shut every weekday but Monday, and Monday itself down to
// period 1.
func TestSolveS2TeacherConflictStrict(t *testing.T) {
	settings := SchoolSettings{
		Grades:          []int{1},
		ClassesPerGrade: map[int][]string{1: {"A", "B"}},
		DailyPeriods:    1,
		SaturdayPeriods: 0,
	}
	shutDay := func(d Day) AssignmentRestriction {
		return AssignmentRestriction{Day: d, RestrictedPeriods: map[int]bool{}, Level: Mandatory}
	}
	teachers := []Teacher{
		{
			ID:         "T1",
			SubjectIDs: []string{"MATH"},
			Grades:     []int{1},
			Restrictions: []AssignmentRestriction{
				{Day: Monday, RestrictedPeriods: map[int]bool{1: true}, Level: Mandatory},
				shutDay(Tuesday), shutDay(Wednesday), shutDay(Thursday), shutDay(Friday),
			},
		},
	}
	subjects := []Subject{
		{ID: "MATH", Grades: []int{1}, WeeklyHours: map[int]int{1: 1}},
	}
	require.Equal(t, 1, teachers[0].AvailableHours(settings))

	strictOut, err := Solve(Input{Settings: settings, Teachers: teachers, Subjects: subjects, Mode: StrictMode})
	require.NoError(t, err)
	assert.Equal(t, 10, strictOut.Statistics.TotalSlots)
	assert.Equal(t, 1, strictOut.Statistics.AssignedSlots)
	// The other 9 grid cells (both sections' remaining four weekdays,
	// plus B's Monday slot) were never reachable by either candidate, but
	// TotalSlots/UnassignedSlots count the whole grid, not just the
	// contested slot — only one of the two candidates ever wins T1.
	assert.Equal(t, 9, strictOut.Statistics.UnassignedSlots)

	tolerantOut, err := Solve(Input{Settings: settings, Teachers: teachers, Subjects: subjects, Mode: TolerantMode})
	require.NoError(t, err)
	assert.Equal(t, 2, tolerantOut.Statistics.AssignedSlots)

	var violatingSlots int
	for _, slot := range tolerantOut.Timetable.AllSlots() {
		if slot.HasViolation {
			violatingSlots++
			assert.Equal(t, SeverityMedium, slot.ViolationSeverity)
			assert.Equal(t, Monday, slot.Day)
		}
	}
	assert.Equal(t, 1, violatingSlots)
}

// S3 — MANDATORY restriction.
func TestSolveS3MandatoryRestriction(t *testing.T) {
	input := Input{
		Settings: settingsSingleGradeA(3, 0),
		Teachers: []Teacher{
			{
				ID:         "T1",
				SubjectIDs: []string{"MATH"},
				Grades:     []int{1},
				Restrictions: []AssignmentRestriction{
					{Day: Monday, RestrictedPeriods: map[int]bool{1: true}, Level: Mandatory},
				},
			},
		},
		Subjects: []Subject{
			{ID: "MATH", Grades: []int{1}, WeeklyHours: map[int]int{1: 2}},
		},
		Mode: StrictMode,
	}

	out, err := Solve(input)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Statistics.AssignedSlots)

	mondaySlot := out.Timetable.At(1, "A", Monday, 1)
	require.NotNil(t, mondaySlot)
	assert.Equal(t, "MATH", mondaySlot.SubjectID)

	for _, period := range []int{2, 3} {
		slot := out.Timetable.At(1, "A", Monday, period)
		require.NotNil(t, slot)
		assert.True(t, slot.Empty(), "no MATH should land on MON outside the mandatory window")
	}
}

// S4 — Special classroom. With no classroom ever available, AssignStrict
// refuses the candidate at every one of the grid's slots — not just at
// the hours the subject actually needs — so strict mode leaves the whole
// grid unassigned, not just the requested hour count.
func TestSolveS4SpecialClassroom(t *testing.T) {
	settings := settingsSingleGradeA(2, 0)
	teachers := []Teacher{
		{ID: "T1", SubjectIDs: []string{"SCIENCE"}, Grades: []int{1}},
	}
	subjects := []Subject{
		{ID: "SCIENCE", Grades: []int{1}, WeeklyHours: map[int]int{1: 1}, RequiresSpecialClassroom: true, ClassroomType: "LAB"},
	}

	strictOut, err := Solve(Input{Settings: settings, Teachers: teachers, Subjects: subjects, Mode: StrictMode})
	require.NoError(t, err)
	assert.Equal(t, 10, strictOut.Statistics.TotalSlots)
	assert.Equal(t, 0, strictOut.Statistics.AssignedSlots)
	assert.Equal(t, 10, strictOut.Statistics.UnassignedSlots)

	tolerantOut, err := Solve(Input{Settings: settings, Teachers: teachers, Subjects: subjects, Mode: TolerantMode})
	require.NoError(t, err)

	var sawViolation bool
	for _, slot := range tolerantOut.Timetable.AllSlots() {
		if slot.SubjectID == "SCIENCE" {
			assert.Empty(t, slot.ClassroomID)
			assert.True(t, slot.HasViolation)
			sawViolation = true
		}
	}
	assert.True(t, sawViolation)
}

// S5 — Multi-subject teacher, difficulty ordering.
func TestSolveS5DifficultyOrdering(t *testing.T) {
	settings := SchoolSettings{
		Grades:          []int{1, 2, 3},
		ClassesPerGrade: map[int][]string{1: {"A"}, 2: {"A"}, 3: {"A"}},
		DailyPeriods:    6,
		SaturdayPeriods: 0,
	}
	teachers := []Teacher{
		{ID: "T1", SubjectIDs: []string{"MATH"}, Grades: []int{1}},
		{ID: "T2", SubjectIDs: []string{"MATH"}, Grades: []int{1, 2, 3}},
	}
	subjects := []Subject{
		{ID: "MATH", Grades: []int{1, 2, 3}, WeeklyHours: map[int]int{1: 4, 2: 4, 3: 4}},
	}

	out, err := Solve(Input{Settings: settings, Teachers: teachers, Subjects: subjects, Mode: StrictMode})
	require.NoError(t, err)
	assert.Equal(t, 16, out.Statistics.AssignedSlots)
	assert.Equal(t, 0, out.Statistics.ConstraintViolations)
}

// S6 — Determinism.
func TestSolveS6Determinism(t *testing.T) {
	input := Input{
		Settings: SchoolSettings{
			Grades:          []int{1, 2},
			ClassesPerGrade: map[int][]string{1: {"A", "B"}, 2: {"A"}},
			DailyPeriods:    4,
			SaturdayPeriods: 2,
		},
		Teachers: []Teacher{
			{ID: "T1", SubjectIDs: []string{"MATH", "ART"}, Grades: []int{1, 2}},
			{ID: "T2", SubjectIDs: []string{"ART"}, Grades: []int{1}},
		},
		Subjects: []Subject{
			{ID: "MATH", Grades: []int{1, 2}, WeeklyHours: map[int]int{1: 3, 2: 3}},
			{ID: "ART", Grades: []int{1, 2}, WeeklyHours: map[int]int{0: 2}},
		},
		Mode: StrictMode,
	}

	first, err := Solve(input)
	require.NoError(t, err)
	second, err := Solve(input)
	require.NoError(t, err)

	assert.Equal(t, first.Statistics.AssignedSlots, second.Statistics.AssignedSlots)
	assert.Equal(t, first.Statistics.UnassignedSlots, second.Statistics.UnassignedSlots)
	assert.Equal(t, first.Statistics.BacktrackCount, second.Statistics.BacktrackCount)

	firstSlots := first.Timetable.AllSlots()
	secondSlots := second.Timetable.AllSlots()
	require.Equal(t, len(firstSlots), len(secondSlots))
	for i := range firstSlots {
		assert.Equal(t, firstSlots[i].TeacherID, secondSlots[i].TeacherID)
		assert.Equal(t, firstSlots[i].SubjectID, secondSlots[i].SubjectID)
		assert.Equal(t, firstSlots[i].ClassroomID, secondSlots[i].ClassroomID)
	}
}

// Boundary: saturdayPeriods == 0 produces no Saturday slots at all.
func TestSolveNoSaturdaySlotsWhenZero(t *testing.T) {
	grid, err := BuildGrid(settingsSingleGradeA(2, 0))
	require.NoError(t, err)
	for _, slot := range grid.AllSlots() {
		assert.NotEqual(t, Saturday, slot.Day)
	}
}

// Boundary: a teacher with every day fully forbidden by MANDATORY
// restrictions has zero available hours and is never assigned.
func TestSolveTeacherWithNoAvailableHours(t *testing.T) {
	settings := settingsSingleGradeA(2, 0)
	teacher := Teacher{
		ID:         "T1",
		SubjectIDs: []string{"MATH"},
		Grades:     []int{1},
		Restrictions: []AssignmentRestriction{
			{Day: Monday, RestrictedPeriods: map[int]bool{}, Level: Mandatory},
			{Day: Tuesday, RestrictedPeriods: map[int]bool{}, Level: Mandatory},
			{Day: Wednesday, RestrictedPeriods: map[int]bool{}, Level: Mandatory},
			{Day: Thursday, RestrictedPeriods: map[int]bool{}, Level: Mandatory},
			{Day: Friday, RestrictedPeriods: map[int]bool{}, Level: Mandatory},
		},
	}
	assert.Equal(t, 0, teacher.AvailableHours(settings))

	out, err := Solve(Input{
		Settings: settings,
		Teachers: []Teacher{teacher},
		Subjects: []Subject{{ID: "MATH", Grades: []int{1}, WeeklyHours: map[int]int{1: 2}}},
		Mode:     StrictMode,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Statistics.AssignedSlots)
	// Every one of the grid's 10 slots stays unassigned.
	assert.Equal(t, 10, out.Statistics.UnassignedSlots)
}

// Boundary: weeklyHours[g] == 0 produces no candidate for that grade.
func TestSolveZeroWeeklyHoursProducesNoCandidate(t *testing.T) {
	teachers := []Teacher{{ID: "T1", SubjectIDs: []string{"MATH"}, Grades: []int{1}}}
	subjects := map[string]*Subject{
		"MATH": {ID: "MATH", Grades: []int{1}, WeeklyHours: map[int]int{1: 0}},
	}
	candidates, diagnostics := GenerateCandidates(settingsSingleGradeA(2, 0), teachers, subjects)
	assert.Empty(t, candidates)
	assert.Empty(t, diagnostics)
}

func TestSolveInvalidSettingsIsFatal(t *testing.T) {
	_, err := Solve(Input{Settings: SchoolSettings{DailyPeriods: 0}})
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindInvalidSettings, engErr.Kind)
	assert.True(t, engErr.Kind.IsFatal())
}

func TestSolveUnknownSubjectReferenceIsDiagnostic(t *testing.T) {
	out, err := Solve(Input{
		Settings: settingsSingleGradeA(2, 0),
		Teachers: []Teacher{{ID: "T1", SubjectIDs: []string{"MISSING"}, Grades: []int{1}}},
		Mode:     StrictMode,
	})
	require.NoError(t, err)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, KindUnknownReference, out.Diagnostics[0].Kind)
	assert.Equal(t, 0, out.Statistics.AssignedSlots)
}
