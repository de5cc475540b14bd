package engine

import "time"

// Input is the value-in side of the §6 external interface contract.
type Input struct {
	Settings   SchoolSettings
	Teachers   []Teacher
	Subjects   []Subject
	Classrooms []Classroom
	Mode       Mode
	Options    Options
}

// Output is the value-out side of the §6 external interface contract.
type Output struct {
	Timetable   *Grid
	Statistics  Statistics
	Diagnostics []Diagnostic
	Status      Status
}

// Solve is the engine's sole public entry point: settings, teachers,
// subjects and classrooms in; a filled grid, statistics, diagnostics and
// status out. It performs no I/O and returns an error only for the fatal
// kinds of §7 (InvalidSettings, InvalidGrade, InternalInvariantError) — everything else
// is absorbed into Output.Status/Diagnostics.
func Solve(input Input) (*Output, error) {
	start := time.Now()

	grid, err := BuildGrid(input.Settings)
	if err != nil {
		return nil, err
	}
	grid.RegisterTeachers(input.Teachers)
	subjects := grid.RegisterSubjects(input.Subjects)
	grid.RegisterClassrooms(input.Classrooms)

	candidates, diagnostics := GenerateCandidates(input.Settings, input.Teachers, subjects)

	solver := NewSolver(grid, candidates, subjects, input.Options)

	var resultGrid *Grid
	var status Status
	switch input.Mode {
	case TolerantMode:
		resultGrid, status = solver.SolveTolerant()
	default:
		resultGrid, status = solver.SolveStrict()
	}

	if resultGrid == nil {
		return nil, &Error{Kind: KindInternalInvariantError, Message: "solver produced no grid"}
	}

	elapsed := time.Since(start)
	stats := ComputeStatistics(resultGrid, solver.backtrackCount, solver.interrupted, elapsed)
	quality := ComputeQualityMetrics(resultGrid, input.Teachers)
	stats.QualityMetrics = &quality

	return &Output{
		Timetable:   resultGrid,
		Statistics:  stats,
		Diagnostics: diagnostics,
		Status:      status,
	}, nil
}
