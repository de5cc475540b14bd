package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/engine"
	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

const proposalCacheKeyPrefix = "scheduler:proposal:"

type semesterScheduleRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error
	ListByTermClass(ctx context.Context, termID, classID string) ([]models.SemesterSchedule, error)
	FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error
}

type semesterScheduleSlotRepository interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error)
}

type schedulerTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type schedulerClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListAll(ctx context.Context) ([]models.Class, error)
}

type schedulerSubjectReader interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type schedulerTeacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type schedulerAssignmentReader interface {
	ListByTerm(ctx context.Context, termID string) ([]models.TeacherAssignment, error)
}

type schedulerPreferenceReader interface {
	GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherPreference, error)
}

type schedulerClassroomReader interface {
	ListAll(ctx context.Context) ([]models.Classroom, error)
}

type scheduleFeeder interface {
	FindConflicts(ctx context.Context, termID, dayOfWeek, timeSlot string) ([]models.Schedule, error)
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type solveMetrics interface {
	engine.Recorder
	ObserveSolve(status string, duration time.Duration, assignmentRate float64)
}

// ScheduleGeneratorService runs the constraint engine over a term's full
// roster and persists the resulting timetable. A solve proposes a
// whole-term grid across every class at once; Save extracts one class's
// slice of that grid into a versioned semester schedule.
type ScheduleGeneratorService struct {
	terms       schedulerTermReader
	classes     schedulerClassReader
	subjects    schedulerSubjectReader
	teachers    schedulerTeacherReader
	assignments schedulerAssignmentReader
	prefs       schedulerPreferenceReader
	classrooms  schedulerClassroomReader
	schedules   scheduleFeeder
	semesters   semesterScheduleRepository
	slots       semesterScheduleSlotRepository
	cache       CacheRepository
	tx          txProvider
	metrics     solveMetrics
	validator   *validator.Validate
	logger      *zap.Logger

	proposalTTL           time.Duration
	defaultBacktrackLimit int
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	ProposalTTL           time.Duration
	DefaultBacktrackLimit int
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	terms schedulerTermReader,
	classes schedulerClassReader,
	subjects schedulerSubjectReader,
	teachers schedulerTeacherReader,
	assignments schedulerAssignmentReader,
	prefs schedulerPreferenceReader,
	classrooms schedulerClassroomReader,
	schedules scheduleFeeder,
	semesters semesterScheduleRepository,
	slots semesterScheduleSlotRepository,
	cache CacheRepository,
	tx txProvider,
	metrics solveMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.DefaultBacktrackLimit <= 0 {
		cfg.DefaultBacktrackLimit = 5000
	}
	return &ScheduleGeneratorService{
		terms:                 terms,
		classes:               classes,
		subjects:              subjects,
		teachers:              teachers,
		assignments:           assignments,
		prefs:                 prefs,
		classrooms:            classrooms,
		schedules:             schedules,
		semesters:             semesters,
		slots:                 slots,
		cache:                 cache,
		tx:                    tx,
		metrics:               metrics,
		validator:             validate,
		logger:                logger,
		proposalTTL:           cfg.ProposalTTL,
		defaultBacktrackLimit: cfg.DefaultBacktrackLimit,
	}
}

// cachedProposal is what Generate stores and Save later reads back, keyed
// by ProposalID. It carries the whole-term grid so Save can slice out any
// one class without re-running the solve.
type cachedProposal struct {
	TermID    string                   `json:"termId"`
	Slots     []dto.ScheduleSlotProposal `json:"slots"`
	Conflicts []dto.ProposalConflict     `json:"conflicts"`
	Stats     dto.ScheduleImprovementStats `json:"stats"`
	Status    string                     `json:"status"`
}

// Generate solves the full timetable for a term and caches the result
// under a proposal id for a later Save call.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	input, loadLimits, err := s.buildEngineInput(ctx, req.TermID)
	if err != nil {
		return nil, err
	}

	backtrackLimit := req.BacktrackLimit
	if backtrackLimit <= 0 {
		backtrackLimit = s.defaultBacktrackLimit
	}
	input.Mode = engine.StrictMode
	if req.Mode == "TOLERANT" {
		input.Mode = engine.TolerantMode
	}
	input.Options = engine.Options{
		BacktrackLimit: backtrackLimit,
		Context:        ctx,
	}
	if len(loadLimits) > 0 {
		input.Options.ExtraCheckers = []engine.Checker{newMaxLoadChecker(loadLimits)}
	}
	if s.metrics != nil {
		input.Options.Metrics = s.metrics
	}

	start := time.Now()
	output, err := engine.Solve(input)
	if err != nil {
		var engineErr *engine.Error
		if errors.As(err, &engineErr) {
			return nil, mapEngineError(engineErr)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scheduling engine failed")
	}
	if s.metrics != nil {
		s.metrics.ObserveSolve(string(output.Status), time.Since(start), output.Statistics.AssignmentRate)
	}

	proposalID := uuid.NewString()
	slots := exportSlotProposals(output.Timetable)
	conflicts := exportConflicts(output.Timetable)
	stats := exportStats(output.Statistics)

	proposal := cachedProposal{
		TermID:    req.TermID,
		Slots:     slots,
		Conflicts: conflicts,
		Stats:     stats,
		Status:    string(output.Status),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, proposalCacheKeyPrefix+proposalID, proposal, s.proposalTTL); err != nil {
			s.logger.Warn("failed to cache schedule proposal", zap.String("proposalId", proposalID), zap.Error(err))
		}
	}

	return &dto.GenerateScheduleResponse{
		ProposalID: proposalID,
		Status:     string(output.Status),
		Slots:      slots,
		Conflicts:  conflicts,
		Stats:      stats,
	}, nil
}

// Save extracts one class's slots out of a cached whole-term proposal and
// persists them as a new semester schedule version.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	if s.cache == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "proposal cache unavailable")
	}

	var proposal cachedProposal
	if err := s.cache.Get(ctx, proposalCacheKeyPrefix+req.ProposalID, &proposal); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cached proposal")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	grade, err := strconv.Atoi(class.Grade)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "class grade is not numeric")
	}

	var classSlots []dto.ScheduleSlotProposal
	for _, slot := range proposal.Slots {
		if slot.ClassGrade == grade && slot.ClassSection == class.Section {
			classSlots = append(classSlots, slot)
		}
	}
	if len(classSlots) == 0 {
		return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "proposal contains no slots for this class")
	}
	for _, conflict := range proposal.Conflicts {
		if conflict.ClassGrade == grade && conflict.ClassSection == class.Section {
			return "", appErrors.Clone(appErrors.ErrConflict, "proposal contains unresolved conflicts for this class")
		}
	}

	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaPayload := map[string]any{
		"status": proposal.Status,
		"stats":  proposal.Stats,
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
		return "", err
	}

	record := &models.SemesterSchedule{
		TermID:  proposal.TermID,
		ClassID: req.ClassID,
		Status:  models.SemesterScheduleStatusDraft,
		Meta:    types.JSONText(metaBytes),
	}
	if err = s.semesters.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester schedule")
		return "", err
	}

	slotModels := make([]models.SemesterScheduleSlot, 0, len(classSlots))
	for _, slot := range classSlots {
		slotModels = append(slotModels, models.SemesterScheduleSlot{
			SemesterScheduleID: record.ID,
			DayOfWeek:          slot.DayOfWeek,
			TimeSlot:           slot.TimeSlot,
			SubjectID:          slot.SubjectID,
			TeacherID:          slot.TeacherID,
			ClassroomID:        slot.ClassroomID,
			Severity:           slot.Severity,
		})
	}
	if err = s.slots.UpsertBatch(ctx, tx, slotModels); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist semester schedule slots")
		return "", err
	}

	if req.CommitToDaily {
		if s.schedules == nil {
			err = appErrors.Clone(appErrors.ErrInternal, "daily schedule repository unavailable")
			return "", err
		}
		var dailyConflicts []models.ScheduleConflict
		for _, slot := range classSlots {
			existing, conflictErr := s.schedules.FindConflicts(ctx, proposal.TermID, slot.DayOfWeek, strconv.Itoa(slot.TimeSlot))
			if conflictErr != nil {
				err = appErrors.Wrap(conflictErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check conflicts")
				return "", err
			}
			for _, sched := range existing {
				if sched.ClassID == req.ClassID || sched.TeacherID == slot.TeacherID {
					dailyConflicts = append(dailyConflicts, models.ScheduleConflict{
						ScheduleID: sched.ID,
						TermID:     sched.TermID,
						ClassID:    sched.ClassID,
						SubjectID:  sched.SubjectID,
						TeacherID:  sched.TeacherID,
						DayOfWeek:  sched.DayOfWeek,
						TimeSlot:   sched.TimeSlot,
						Room:       sched.Room,
						Dimension:  "DAILY_SCHEDULE",
					})
				}
			}
		}
		if len(dailyConflicts) > 0 {
			err = appErrors.Wrap(&models.ScheduleConflictError{Type: "CONFLICT", Message: "detected conflicts when committing to daily schedules", Errors: dailyConflicts}, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "conflict detected")
			return "", err
		}

		daily := make([]models.Schedule, 0, len(classSlots))
		for _, slot := range classSlots {
			daily = append(daily, models.Schedule{
				TermID:      proposal.TermID,
				ClassID:     req.ClassID,
				SubjectID:   slot.SubjectID,
				TeacherID:   slot.TeacherID,
				DayOfWeek:   slot.DayOfWeek,
				TimeSlot:    strconv.Itoa(slot.TimeSlot),
				ClassroomID: slot.ClassroomID,
			})
		}
		if err = s.schedules.BulkCreateWithTx(ctx, tx, daily); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit daily schedules")
			return "", err
		}
		if err = s.semesters.UpdateStatus(ctx, tx, record.ID, models.SemesterScheduleStatusPublished, nil); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule status")
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
		return "", err
	}

	if s.cache != nil {
		_ = s.cache.DeleteByPattern(ctx, proposalCacheKeyPrefix+req.ProposalID)
	}
	return record.ID, nil
}

// List returns semester schedules for a class-term tuple.
func (s *ScheduleGeneratorService) List(ctx context.Context, query dto.SemesterScheduleQuery) ([]models.SemesterSchedule, error) {
	if query.TermID == "" || query.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId and classId are required")
	}
	list, err := s.semesters.ListByTermClass(ctx, query.TermID, query.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedules")
	}
	return list, nil
}

// GetSlots returns slot detail for a stored schedule.
func (s *ScheduleGeneratorService) GetSlots(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}
	if _, err := s.semesters.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	slots, err := s.slots.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester schedule slots")
	}
	return slots, nil
}

// Delete removes a draft schedule version.
func (s *ScheduleGeneratorService) Delete(ctx context.Context, scheduleID string) error {
	record, err := s.semesters.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	if record.Status != models.SemesterScheduleStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft schedules can be deleted")
	}
	if err := s.semesters.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester schedule")
	}
	return nil
}

// buildEngineInput assembles one term's roster into the engine's input
// shape: settings derived from the term's bell schedule and every
// registered class (classes are not filtered by term), teachers enriched with their assignment-derived
// qualifications and stored availability preferences, subjects with their
// per-grade weekly hour load, and the special-purpose classroom pool.
func (s *ScheduleGeneratorService) buildEngineInput(ctx context.Context, termID string) (engine.Input, map[string]teacherLoadLimit, error) {
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.Input{}, nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return engine.Input{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return engine.Input{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	if len(classes) == 0 {
		return engine.Input{}, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no classes registered")
	}

	classesPerGrade := make(map[int][]string)
	classByID := make(map[string]*models.Class, len(classes))
	for i := range classes {
		class := classes[i]
		grade, convErr := strconv.Atoi(class.Grade)
		if convErr != nil {
			s.logger.Warn("skipping class with non-numeric grade", zap.String("classId", class.ID), zap.String("grade", class.Grade))
			continue
		}
		classesPerGrade[grade] = append(classesPerGrade[grade], class.Section)
		classByID[class.ID] = &classes[i]
	}
	grades := make([]int, 0, len(classesPerGrade))
	for g := range classesPerGrade {
		grades = append(grades, g)
	}
	sort.Ints(grades)

	subjectModels, err := s.subjects.ListAll(ctx)
	if err != nil {
		return engine.Input{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	engineSubjects := make([]engine.Subject, 0, len(subjectModels))
	for _, subject := range subjectModels {
		converted, convErr := convertSubject(subject)
		if convErr != nil {
			return engine.Input{}, nil, appErrors.Wrap(convErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("invalid subject data for %s", subject.ID))
		}
		engineSubjects = append(engineSubjects, converted)
	}

	teacherModels, err := s.teachers.ListActive(ctx)
	if err != nil {
		return engine.Input{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	assignments, err := s.assignments.ListByTerm(ctx, termID)
	if err != nil {
		return engine.Input{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher assignments")
	}
	assignmentsByTeacher := make(map[string][]models.TeacherAssignment)
	for _, a := range assignments {
		assignmentsByTeacher[a.TeacherID] = append(assignmentsByTeacher[a.TeacherID], a)
	}

	engineTeachers := make([]engine.Teacher, 0, len(teacherModels))
	loadLimits := make(map[string]teacherLoadLimit)
	for _, teacher := range teacherModels {
		subjectSet := make(map[string]bool)
		gradeSet := make(map[int]bool)
		for _, a := range assignmentsByTeacher[teacher.ID] {
			subjectSet[a.SubjectID] = true
			if class, ok := classByID[a.ClassID]; ok {
				if grade, convErr := strconv.Atoi(class.Grade); convErr == nil {
					gradeSet[grade] = true
				}
			}
		}
		restrictions, limit, err := s.loadPreference(ctx, teacher.ID)
		if err != nil {
			return engine.Input{}, nil, err
		}
		if limit.MaxPerDay > 0 || limit.MaxPerWeek > 0 {
			loadLimits[teacher.ID] = limit
		}
		engineTeachers = append(engineTeachers, engine.Teacher{
			ID:           teacher.ID,
			Name:         teacher.FullName,
			SubjectIDs:   sortedStringSet(subjectSet),
			Grades:       sortedIntSet(gradeSet),
			Restrictions: restrictions,
		})
	}

	classroomModels, err := s.classrooms.ListAll(ctx)
	if err != nil {
		return engine.Input{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	engineClassrooms := make([]engine.Classroom, 0, len(classroomModels))
	for _, classroom := range classroomModels {
		engineClassrooms = append(engineClassrooms, engine.Classroom{
			ID:    classroom.ID,
			Name:  classroom.Name,
			Type:  classroom.Type,
			Count: classroom.Count,
		})
	}

	settings := engine.SchoolSettings{
		Grades:          grades,
		ClassesPerGrade: classesPerGrade,
		DailyPeriods:    term.DailyPeriods,
		SaturdayPeriods: term.SaturdayPeriods,
	}

	return engine.Input{
		Settings:   settings,
		Teachers:   engineTeachers,
		Subjects:   engineSubjects,
		Classrooms: engineClassrooms,
	}, loadLimits, nil
}

// loadPreference converts a teacher's stored availability preference into
// the engine's restriction shape and surfaces its max-load caps so
// Generate can build the load-capping checker without a second round of
// preference lookups.
func (s *ScheduleGeneratorService) loadPreference(ctx context.Context, teacherID string) ([]engine.AssignmentRestriction, teacherLoadLimit, error) {
	if s.prefs == nil {
		return nil, teacherLoadLimit{}, nil
	}
	pref, err := s.prefs.GetByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, teacherLoadLimit{}, nil
		}
		return nil, teacherLoadLimit{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher preferences")
	}
	if pref == nil {
		return nil, teacherLoadLimit{}, nil
	}
	limit := teacherLoadLimit{MaxPerDay: pref.MaxLoadPerDay, MaxPerWeek: pref.MaxLoadPerWeek}
	if len(pref.Unavailable) == 0 {
		return nil, limit, nil
	}
	var raw []models.AssignmentRestriction
	if err := json.Unmarshal(pref.Unavailable, &raw); err != nil {
		s.logger.Warn("ignoring malformed teacher restriction payload", zap.String("teacherId", teacherID), zap.Error(err))
		return nil, limit, nil
	}
	restrictions := make([]engine.AssignmentRestriction, 0, len(raw))
	for _, r := range raw {
		restrictions = append(restrictions, engine.AssignmentRestriction{
			Day:               engine.Day(r.DayOfWeek),
			RestrictedPeriods: periodsToSet(r.Periods),
			Level:             engine.RestrictionLevel(r.Level),
			Reason:            r.Reason,
			DisplayOrder:      r.DisplayOrder,
		})
	}
	return restrictions, limit, nil
}

func periodsToSet(periods []int) map[int]bool {
	set := make(map[int]bool, len(periods))
	for _, p := range periods {
		set[p] = true
	}
	return set
}

func sortedStringSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortedIntSet(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// convertSubject maps the persisted, JSON-flexible subject row onto the
// engine's dense per-grade representation. WeeklyHours is stored either
// as a single number (broadcast to every declared grade) or as a
// grade-keyed object, matching the two shapes the admin UI accepts.
func convertSubject(m models.Subject) (engine.Subject, error) {
	var grades []int
	if len(m.Grades) > 0 {
		if err := json.Unmarshal(m.Grades, &grades); err != nil {
			return engine.Subject{}, fmt.Errorf("decode grades: %w", err)
		}
	}

	hours := make(map[int]int)
	if len(m.WeeklyHours) > 0 {
		var byGrade map[string]int
		if err := json.Unmarshal(m.WeeklyHours, &byGrade); err == nil {
			for key, value := range byGrade {
				grade, convErr := strconv.Atoi(key)
				if convErr != nil {
					continue
				}
				hours[grade] = value
			}
		} else {
			var scalar int
			if err := json.Unmarshal(m.WeeklyHours, &scalar); err != nil {
				return engine.Subject{}, fmt.Errorf("decode weekly hours: %w", err)
			}
			hours = engine.NewSubjectWeeklyHours(scalar, grades)
		}
	}

	return engine.Subject{
		ID:                       m.ID,
		Name:                     m.Name,
		Grades:                   grades,
		WeeklyHours:              hours,
		RequiresSpecialClassroom: m.RequiresSpecialClassroom,
		ClassroomType:            m.ClassroomType,
	}, nil
}

// mapEngineError translates the engine's fatal error taxonomy onto the
// HTTP-aware error type the rest of the service layer uses. Only the
// fatal kinds ever reach here (engine.Solve absorbs everything else into
// Output.Status/Diagnostics).
func mapEngineError(err *engine.Error) *appErrors.Error {
	switch err.Kind {
	case engine.KindInvalidSettings, engine.KindInvalidGrade:
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scheduling engine failed: "+err.Message)
	}
}

func exportSlotProposals(grid *engine.Grid) []dto.ScheduleSlotProposal {
	all := grid.AllSlots()
	slots := make([]dto.ScheduleSlotProposal, 0, len(all))
	for _, slot := range all {
		var classroomID *string
		if slot.ClassroomID != "" {
			v := slot.ClassroomID
			classroomID = &v
		}
		severity := ""
		if slot.HasViolation {
			severity = slot.ViolationSeverity.String()
		}
		slots = append(slots, dto.ScheduleSlotProposal{
			ClassGrade:   slot.ClassGrade,
			ClassSection: slot.ClassSection,
			DayOfWeek:    string(slot.Day),
			TimeSlot:     slot.Period,
			SubjectID:    slot.SubjectID,
			TeacherID:    slot.TeacherID,
			ClassroomID:  classroomID,
			Severity:     severity,
		})
	}
	return slots
}

func exportConflicts(grid *engine.Grid) []dto.ProposalConflict {
	var conflicts []dto.ProposalConflict
	for _, slot := range grid.AllSlots() {
		for _, v := range slot.Violations {
			conflicts = append(conflicts, dto.ProposalConflict{
				ClassGrade:   slot.ClassGrade,
				ClassSection: slot.ClassSection,
				DayOfWeek:    string(slot.Day),
				TimeSlot:     slot.Period,
				Type:         v.Type,
				Severity:     v.Severity.String(),
				Message:      v.Message,
				Reason:       v.Reason,
			})
		}
	}
	return conflicts
}

func exportStats(stats engine.Statistics) dto.ScheduleImprovementStats {
	return dto.ScheduleImprovementStats{
		TotalSlots:           stats.TotalSlots,
		AssignedSlots:        stats.AssignedSlots,
		UnassignedSlots:      stats.UnassignedSlots,
		ConstraintViolations: stats.ConstraintViolations,
		AssignmentRate:       stats.AssignmentRate,
		BacktrackCount:       stats.BacktrackCount,
		Interrupted:          stats.Interrupted,
		GenerationTime:       stats.GenerationTime,
	}
}

// maxLoadChecker rejects placements beyond TeacherPreference.MaxLoadPerDay/
// MaxLoadPerWeek with a MEDIUM-severity violation, wired into the solve
// through engine.Options.ExtraCheckers rather than inside the
// dependency-free engine package itself. In STRICT mode this is a hard
// cap; the TOLERANT solver still places a teacher past the cap and
// records the violation on the slot.
type maxLoadChecker struct {
	limits map[string]teacherLoadLimit
}

type teacherLoadLimit struct {
	MaxPerDay  int
	MaxPerWeek int
}

func newMaxLoadChecker(limits map[string]teacherLoadLimit) *maxLoadChecker {
	return &maxLoadChecker{limits: limits}
}

func (c *maxLoadChecker) Name() string { return "max-load-preference" }

func (c *maxLoadChecker) Check(slot *engine.Slot, candidate engine.Candidate, grid *engine.Grid) engine.CheckResult {
	limit, ok := c.limits[candidate.TeacherID]
	if !ok {
		return engine.CheckResult{OK: true}
	}
	if limit.MaxPerDay > 0 {
		count := 0
		for p := 1; p <= grid.Settings.PeriodsOn(slot.Day); p++ {
			if busy := grid.TeacherBusyAt(candidate.TeacherID, slot.Day, p); busy != nil && busy != slot {
				count++
			}
		}
		if count >= limit.MaxPerDay {
			return engine.CheckResult{OK: false, Violation: engine.Violation{
				Type:     "MAX_LOAD_PER_DAY",
				Severity: engine.SeverityMedium,
				Message:  fmt.Sprintf("teacher %s already has %d periods on %s", candidate.TeacherID, count, slot.Day),
				Reason:   "max load per day exceeded",
			}}
		}
	}
	if limit.MaxPerWeek > 0 {
		count := 0
		for _, d := range grid.Settings.Days() {
			for p := 1; p <= grid.Settings.PeriodsOn(d); p++ {
				if busy := grid.TeacherBusyAt(candidate.TeacherID, d, p); busy != nil && busy != slot {
					count++
				}
			}
		}
		if count >= limit.MaxPerWeek {
			return engine.CheckResult{OK: false, Violation: engine.Violation{
				Type:     "MAX_LOAD_PER_WEEK",
				Severity: engine.SeverityMedium,
				Message:  fmt.Sprintf("teacher %s already has %d periods this week", candidate.TeacherID, count),
				Reason:   "max load per week exceeded",
			}}
		}
	}
	return engine.CheckResult{OK: true}
}
