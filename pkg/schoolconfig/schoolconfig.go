// Package schoolconfig loads a standalone school configuration file (the
// batch-driver analogue of pkg/config) and converts it into the engine's
// native types (SchoolInput, from which the caller builds an engine.Input),
// and renders an engine.Grid back into an export.Dataset. It exists so
// cmd/timetable-cli can solve a timetable without opening a database
// connection: the whole school, for one run, lives in a single file.
package schoolconfig

import (
	"fmt"
	"strconv"

	"github.com/spf13/viper"

	"github.com/noah-isme/sma-adp-api/internal/engine"
	"github.com/noah-isme/sma-adp-api/pkg/export"
)

// TeacherConfig is the file-shape of one teacher entry.
type TeacherConfig struct {
	ID           string             `mapstructure:"id"`
	Name         string             `mapstructure:"name"`
	SubjectIDs   []string           `mapstructure:"subject_ids"`
	Grades       []int              `mapstructure:"grades"`
	Restrictions []RestrictionEntry `mapstructure:"restrictions"`
}

// RestrictionEntry is the file-shape of one teacher availability rule.
type RestrictionEntry struct {
	Day          string `mapstructure:"day"`
	Periods      []int  `mapstructure:"periods"`
	Level        string `mapstructure:"level"`
	Reason       string `mapstructure:"reason"`
	DisplayOrder int    `mapstructure:"display_order"`
}

// SubjectConfig is the file-shape of one subject entry. WeeklyHours is
// keyed by grade as a string since config file formats (YAML/JSON/TOML)
// don't support integer map keys; "0" is the scalar-fallback grade.
type SubjectConfig struct {
	ID                       string         `mapstructure:"id"`
	Name                     string         `mapstructure:"name"`
	Grades                   []int          `mapstructure:"grades"`
	WeeklyHours              map[string]int `mapstructure:"weekly_hours"`
	RequiresSpecialClassroom bool           `mapstructure:"requires_special_classroom"`
	ClassroomType            string         `mapstructure:"classroom_type"`
}

// ClassroomConfig is the file-shape of one special-purpose classroom.
type ClassroomConfig struct {
	ID    string `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	Type  string `mapstructure:"type"`
	Count int    `mapstructure:"count"`
}

// Config is the root document cmd/timetable-cli reads.
type Config struct {
	Grades          []int               `mapstructure:"grades"`
	ClassesPerGrade map[string][]string `mapstructure:"classes_per_grade"`
	DailyPeriods    int                 `mapstructure:"daily_periods"`
	SaturdayPeriods int                 `mapstructure:"saturday_periods"`
	Teachers        []TeacherConfig     `mapstructure:"teachers"`
	Subjects        []SubjectConfig     `mapstructure:"subjects"`
	Classrooms      []ClassroomConfig   `mapstructure:"classrooms"`
}

// SchoolInput is Config translated into the engine's native types.
type SchoolInput struct {
	Settings   engine.SchoolSettings
	Teachers   []engine.Teacher
	Subjects   []engine.Subject
	Classrooms []engine.Classroom
}

// Load reads a school configuration file (YAML, JSON or TOML, resolved by
// file extension) and converts it into engine-native types.
func Load(path string) (*SchoolInput, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read school configuration: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode school configuration: %w", err)
	}

	classesPerGrade := make(map[int][]string, len(cfg.ClassesPerGrade))
	for gradeKey, sections := range cfg.ClassesPerGrade {
		grade, err := strconv.Atoi(gradeKey)
		if err != nil {
			return nil, fmt.Errorf("invalid grade key %q in classes_per_grade: %w", gradeKey, err)
		}
		classesPerGrade[grade] = sections
	}

	teachers := make([]engine.Teacher, 0, len(cfg.Teachers))
	for _, t := range cfg.Teachers {
		restrictions := make([]engine.AssignmentRestriction, 0, len(t.Restrictions))
		for _, r := range t.Restrictions {
			periods := make(map[int]bool, len(r.Periods))
			for _, p := range r.Periods {
				periods[p] = true
			}
			restrictions = append(restrictions, engine.AssignmentRestriction{
				Day:               engine.Day(r.Day),
				RestrictedPeriods: periods,
				Level:             engine.RestrictionLevel(r.Level),
				Reason:            r.Reason,
				DisplayOrder:      r.DisplayOrder,
			})
		}
		teachers = append(teachers, engine.Teacher{
			ID:           t.ID,
			Name:         t.Name,
			SubjectIDs:   t.SubjectIDs,
			Grades:       t.Grades,
			Restrictions: restrictions,
		})
	}

	subjects := make([]engine.Subject, 0, len(cfg.Subjects))
	for _, s := range cfg.Subjects {
		hours := make(map[int]int, len(s.WeeklyHours))
		for gradeKey, value := range s.WeeklyHours {
			grade, err := strconv.Atoi(gradeKey)
			if err != nil {
				return nil, fmt.Errorf("invalid grade key %q in subject %q weekly_hours: %w", gradeKey, s.ID, err)
			}
			hours[grade] = value
		}
		subjects = append(subjects, engine.Subject{
			ID:                       s.ID,
			Name:                     s.Name,
			Grades:                   s.Grades,
			WeeklyHours:              hours,
			RequiresSpecialClassroom: s.RequiresSpecialClassroom,
			ClassroomType:            s.ClassroomType,
		})
	}

	classrooms := make([]engine.Classroom, 0, len(cfg.Classrooms))
	for _, c := range cfg.Classrooms {
		classrooms = append(classrooms, engine.Classroom{
			ID:    c.ID,
			Name:  c.Name,
			Type:  c.Type,
			Count: c.Count,
		})
	}

	return &SchoolInput{
		Settings: engine.SchoolSettings{
			Grades:          cfg.Grades,
			ClassesPerGrade: classesPerGrade,
			DailyPeriods:    cfg.DailyPeriods,
			SaturdayPeriods: cfg.SaturdayPeriods,
		},
		Teachers:   teachers,
		Subjects:   subjects,
		Classrooms: classrooms,
	}, nil
}

// BuildDataset flattens a solved grid into the row-oriented shape
// pkg/export renders, one row per occupied slot in reading order.
func BuildDataset(grid *engine.Grid) export.Dataset {
	headers := []string{"grade", "section", "day", "period", "subject_id", "teacher_id", "classroom_id"}
	rows := make([]map[string]string, 0, len(grid.AllSlots()))
	for _, slot := range grid.AllSlots() {
		if slot.Empty() {
			continue
		}
		rows = append(rows, map[string]string{
			"grade":        strconv.Itoa(slot.ClassGrade),
			"section":      slot.ClassSection,
			"day":          string(slot.Day),
			"period":       strconv.Itoa(slot.Period),
			"subject_id":   slot.SubjectID,
			"teacher_id":   slot.TeacherID,
			"classroom_id": slot.ClassroomID,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
