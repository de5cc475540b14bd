package engine

import (
	"context"
	"sort"
)

// Mode selects the Solver's strategy, per §4.G.
type Mode int

const (
	StrictMode Mode = iota
	TolerantMode
)

// Options configures one Solve run. Context is the idiomatic home for both
// cooperative cancellation and wall-clock deadline (§5) — a single value
// carries both instead of two bespoke channels.
type Options struct {
	BacktrackLimit int
	ExtraCheckers  []Checker
	Metrics        Recorder
	Context        context.Context
}

// Recorder is the optional observability hook a driver may supply; the
// engine itself performs no I/O and never calls into anything but this
// interface (see pkg/metrics for the concrete Prometheus-backed
// implementation).
type Recorder interface {
	ObserveBacktrack()
}

// Status is the outcome category of a Solve run, per §6.
type Status string

const (
	StatusComplete    Status = "COMPLETE"
	StatusPartial     Status = "PARTIAL"
	StatusInterrupted Status = "INTERRUPTED"
	StatusFailed      Status = "FAILED"
)

// Solver owns a single Grid and candidate list for the duration of one run
// and is never shared across threads (§5).
type Solver struct {
	grid       *Grid
	candidates []*Candidate
	subjects   map[string]*Subject
	pipeline   []Checker
	opts       Options

	backtrackCount int
	interrupted    bool
	limitExceeded  bool

	bestGrid  *Grid
	bestCount int
}

// NewSolver constructs a Solver for one run. subjects must be the same
// lookup table registered on grid.
func NewSolver(grid *Grid, candidates []Candidate, subjects map[string]*Subject, opts Options) *Solver {
	ptrs := make([]*Candidate, len(candidates))
	for i := range candidates {
		c := candidates[i]
		ptrs[i] = &c
	}
	sortByDifficulty(ptrs, grid, subjects)

	if opts.Context == nil {
		opts.Context = context.Background()
	}

	return &Solver{
		grid:       grid,
		candidates: ptrs,
		subjects:   subjects,
		pipeline:   DefaultPipeline(opts.ExtraCheckers...),
		opts:       opts,
	}
}

// difficulty computes totalRequiredHours / max(1, availableHours) for
// every teacher referenced by candidates, per §4.G.
func difficulty(candidates []*Candidate, grid *Grid) map[string]float64 {
	totals := make(map[string]int)
	for _, c := range candidates {
		totals[c.TeacherID] += c.RequiredHours
	}
	scores := make(map[string]float64, len(totals))
	for teacherID, total := range totals {
		available := 0
		if t := grid.Teachers[teacherID]; t != nil {
			available = t.AvailableHours(grid.Settings)
		}
		if available < 1 {
			available = 1
		}
		scores[teacherID] = float64(total) / float64(available)
	}
	return scores
}

// sortByDifficulty orders candidates by descending teacher difficulty,
// tie-breaking by original candidate index for determinism (§5).
func sortByDifficulty(candidates []*Candidate, grid *Grid, subjects map[string]*Subject) {
	scores := difficulty(candidates, grid)
	sort.SliceStable(candidates, func(i, j int) bool {
		return scores[candidates[i].TeacherID] > scores[candidates[j].TeacherID]
	})
}

// eligibleSlots returns the empty target slots for a candidate's
// (grade, section) in reading order.
func (s *Solver) eligibleSlots(c *Candidate) []*Slot {
	all := s.grid.SlotsFor(c.ClassGrade, c.ClassSection)
	out := make([]*Slot, 0, len(all))
	for _, slot := range all {
		if slot.Empty() {
			out = append(out, slot)
		}
	}
	return out
}

// prePrune reports whether this (slot, candidate) pair can be skipped
// without running the full pipeline, per §4.G's pre-prune rule.
func (s *Solver) prePrune(slot *Slot, c *Candidate) bool {
	if !slot.Empty() {
		return true
	}
	if busy := s.grid.TeacherBusyAt(c.TeacherID, slot.Day, slot.Period); busy != nil {
		return true
	}
	if t := s.grid.Teachers[c.TeacherID]; t != nil && !t.AllowedOn(slot.Day, slot.Period, s.grid.Settings.PeriodsOn(slot.Day)) {
		return true
	}
	return false
}

func (s *Solver) interruptedNow() bool {
	if s.interrupted {
		return true
	}
	select {
	case <-s.opts.Context.Done():
		s.interrupted = true
		return true
	default:
		return false
	}
}

// stopped reports whether the search should abandon further branches: by
// cancellation/deadline, or because the configured backtrack limit was
// reached (§6's backtrackLimit option).
func (s *Solver) stopped() bool {
	return s.interruptedNow() || s.limitExceeded
}

func (s *Solver) recordBestIfBetter() {
	count := s.grid.AssignedCount()
	if s.bestGrid == nil || count > s.bestCount {
		s.bestGrid = s.grid.Clone()
		s.bestCount = count
	}
}

// SolveStrict runs the recursive backtracking algorithm of §4.G and
// returns the resulting grid and its Status (COMPLETE when every
// candidate was placed, otherwise the best partial grid seen).
func (s *Solver) SolveStrict() (*Grid, Status) {
	s.recordBestIfBetter()
	completed := s.backtrackFrom(0)
	switch {
	case s.interrupted:
		return s.bestGrid, StatusInterrupted
	case completed:
		return s.grid, StatusComplete
	default:
		return s.bestGrid, StatusPartial
	}
}

// backtrackFrom attempts to satisfy every candidate at index >= from. It
// returns true on full success; false means this branch failed and the
// caller should undo its own placement and try another slot.
func (s *Solver) backtrackFrom(from int) bool {
	if s.stopped() {
		return false
	}

	idx := from
	for idx < len(s.candidates) && s.candidates[idx].Remaining() == 0 {
		idx++
	}
	if idx >= len(s.candidates) {
		return true
	}

	c := s.candidates[idx]
	subject := s.subjects[c.SubjectID]

	for _, slot := range s.eligibleSlots(c) {
		if s.prePrune(slot, c) {
			continue
		}
		okAll, _ := Evaluate(s.pipeline, slot, *c, s.grid)
		if !okAll {
			continue
		}
		if !AssignStrict(slot, *c, subject, s.grid) {
			continue
		}
		c.AssignedHours++
		s.recordBestIfBetter()

		if s.backtrackFrom(idx) {
			return true
		}

		Unassign(slot, s.grid)
		c.AssignedHours--

		if s.stopped() {
			return false
		}
	}

	s.backtrackCount++
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveBacktrack()
	}
	if s.opts.BacktrackLimit > 0 && s.backtrackCount >= s.opts.BacktrackLimit {
		s.limitExceeded = true
		return false
	}
	return false
}

// SolveTolerant runs the greedy single-pass algorithm of §4.G. It never
// backtracks and always produces a structurally complete grid.
func (s *Solver) SolveTolerant() (*Grid, Status) {
	for _, c := range s.candidates {
		if s.interruptedNow() {
			return s.grid, StatusInterrupted
		}
		subject := s.subjects[c.SubjectID]
		s.fillTolerant(c, subject)
	}
	return s.grid, StatusComplete
}

func (s *Solver) fillTolerant(c *Candidate, subject *Subject) {
	for c.Remaining() > 0 {
		slots := s.eligibleSlots(c)
		if len(slots) == 0 {
			return
		}

		placed := false
		for _, slot := range slots {
			if s.prePrune(slot, c) {
				continue
			}
			okAll, violations := Evaluate(s.pipeline, slot, *c, s.grid)
			if okAll || HighestSeverity(violations) < SeverityHigh {
				AssignTolerant(slot, *c, subject, s.grid, violations)
				c.AssignedHours++
				placed = true
				break
			}
		}
		if placed {
			continue
		}

		// No slot without a HIGH-severity violation: commit to the empty
		// slot with the lowest aggregate severity, per §4.G step 3.
		bestSlot, bestViolations, found := s.lowestSeveritySlot(c, slots)
		if !found {
			return
		}
		AssignTolerant(bestSlot, *c, subject, s.grid, bestViolations)
		c.AssignedHours++
	}
}

func (s *Solver) lowestSeveritySlot(c *Candidate, slots []*Slot) (*Slot, []Violation, bool) {
	var best *Slot
	var bestViolations []Violation
	bestSeverity := SeverityHigh + 1
	for _, slot := range slots {
		_, violations := Evaluate(s.pipeline, slot, *c, s.grid)
		severity := HighestSeverity(violations)
		if best == nil || severity < bestSeverity {
			best = slot
			bestViolations = violations
			bestSeverity = severity
		}
	}
	return best, bestViolations, best != nil
}
