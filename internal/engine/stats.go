package engine

import (
	"math"
	"time"
)

// QualityMetrics is the optional §4.H heuristic summary of how well the
// solve balanced load across teachers and days, grounded on the gap/load
// penalty heuristics of a greedy timetable scheduler.
type QualityMetrics struct {
	TeacherUtilizationRate   map[string]float64
	SubjectDistributionBalance float64
	LoadBalanceScore         float64
}

// Statistics is the §4.H report produced alongside every Solve outcome.
type Statistics struct {
	TotalSlots           int
	AssignedSlots        int
	UnassignedSlots      int
	ConstraintViolations int
	AssignmentRate       float64
	BacktrackCount       int
	Interrupted          bool
	GenerationTime       time.Duration
	QualityMetrics       *QualityMetrics
}

// ComputeStatistics derives the §4.H counts from a solved grid.
func ComputeStatistics(grid *Grid, backtrackCount int, interrupted bool, elapsed time.Duration) Statistics {
	slots := grid.AllSlots()
	stats := Statistics{
		TotalSlots:     len(slots),
		BacktrackCount: backtrackCount,
		Interrupted:    interrupted,
		GenerationTime: elapsed,
	}
	for _, s := range slots {
		if !s.Empty() {
			stats.AssignedSlots++
		}
		stats.ConstraintViolations += len(s.Violations)
	}
	stats.UnassignedSlots = stats.TotalSlots - stats.AssignedSlots
	if stats.TotalSlots > 0 {
		stats.AssignmentRate = float64(stats.AssignedSlots) / float64(stats.TotalSlots)
	}
	return stats
}

// ComputeQualityMetrics derives the optional heuristic summary of §4.H.
func ComputeQualityMetrics(grid *Grid, teachers []Teacher) QualityMetrics {
	utilization := make(map[string]float64, len(teachers))
	slots := grid.AllSlots()

	assignedByTeacher := make(map[string]int)
	for _, s := range slots {
		if s.TeacherID != "" {
			assignedByTeacher[s.TeacherID]++
		}
	}
	for _, t := range teachers {
		available := t.AvailableHours(grid.Settings)
		if available == 0 {
			utilization[t.ID] = 0
			continue
		}
		utilization[t.ID] = float64(assignedByTeacher[t.ID]) / float64(available)
	}

	perDaySubjectCount := make(map[string]map[Day]int)
	for _, s := range slots {
		if s.SubjectID == "" {
			continue
		}
		if perDaySubjectCount[s.SubjectID] == nil {
			perDaySubjectCount[s.SubjectID] = make(map[Day]int)
		}
		perDaySubjectCount[s.SubjectID][s.Day]++
	}
	balance := 1.0
	if len(perDaySubjectCount) > 0 {
		var sumBalance float64
		for _, perDay := range perDaySubjectCount {
			counts := make([]float64, 0, len(perDay))
			for _, n := range perDay {
				counts = append(counts, float64(n))
			}
			sumBalance += 1 - coefficientOfVariation(counts)
		}
		balance = sumBalance / float64(len(perDaySubjectCount))
	}

	loadScore := 1.0
	if len(utilization) > 0 {
		values := make([]float64, 0, len(utilization))
		for _, u := range utilization {
			values = append(values, u)
		}
		loadScore = 1 - coefficientOfVariation(values)
	}

	return QualityMetrics{
		TeacherUtilizationRate:     utilization,
		SubjectDistributionBalance: clamp01(balance),
		LoadBalanceScore:           clamp01(loadScore),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// coefficientOfVariation computes stddev/mean over values, returning 0
// when the mean is 0 (no spread to measure).
func coefficientOfVariation(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(n)
	return math.Sqrt(variance) / mean
}
