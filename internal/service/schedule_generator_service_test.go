package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

func newMockTxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectBegin()
	mock.ExpectCommit()
	return sqlx.NewDb(rawDB, "sqlmock"), mock
}

type termReaderStub struct {
	term *models.Term
	err  error
}

func (s termReaderStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.term, nil
}

type classReaderStub struct {
	all   []models.Class
	byID  map[string]*models.Class
	err   error
}

func (s classReaderStub) ListAll(ctx context.Context) ([]models.Class, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.all, nil
}

func (s classReaderStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := s.byID[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type subjectReaderListStub struct {
	all []models.Subject
}

func (s subjectReaderListStub) ListAll(ctx context.Context) ([]models.Subject, error) {
	return s.all, nil
}

type teacherReaderActiveStub struct {
	all []models.Teacher
}

func (s teacherReaderActiveStub) ListActive(ctx context.Context) ([]models.Teacher, error) {
	return s.all, nil
}

type assignmentReaderStub struct {
	all []models.TeacherAssignment
}

func (s assignmentReaderStub) ListByTerm(ctx context.Context, termID string) ([]models.TeacherAssignment, error) {
	return s.all, nil
}

type preferenceReaderStub struct {
	byTeacher map[string]*models.TeacherPreference
}

func (s preferenceReaderStub) GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherPreference, error) {
	if pref, ok := s.byTeacher[teacherID]; ok {
		return pref, nil
	}
	return nil, sql.ErrNoRows
}

type classroomReaderStub struct {
	all []models.Classroom
}

func (s classroomReaderStub) ListAll(ctx context.Context) ([]models.Classroom, error) {
	return s.all, nil
}

type scheduleFeederStub struct {
	conflicts []models.Schedule
	created   []models.Schedule
}

func (s *scheduleFeederStub) FindConflicts(ctx context.Context, termID, dayOfWeek, timeSlot string) ([]models.Schedule, error) {
	return s.conflicts, nil
}

func (s *scheduleFeederStub) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error {
	s.created = append(s.created, schedules...)
	return nil
}

type semesterRepoStub struct {
	created []models.SemesterSchedule
	byID    map[string]*models.SemesterSchedule
}

func (s *semesterRepoStub) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error {
	schedule.ID = "semester-1"
	schedule.Version = 1
	s.created = append(s.created, *schedule)
	if s.byID == nil {
		s.byID = make(map[string]*models.SemesterSchedule)
	}
	cp := *schedule
	s.byID[schedule.ID] = &cp
	return nil
}

func (s *semesterRepoStub) ListByTermClass(ctx context.Context, termID, classID string) ([]models.SemesterSchedule, error) {
	return s.created, nil
}

func (s *semesterRepoStub) FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error) {
	if rec, ok := s.byID[id]; ok {
		return rec, nil
	}
	return nil, sql.ErrNoRows
}

func (s *semesterRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byID, id)
	return nil
}

func (s *semesterRepoStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error {
	if rec, ok := s.byID[id]; ok {
		rec.Status = status
	}
	return nil
}

type slotRepoStub struct {
	upserted []models.SemesterScheduleSlot
}

func (s *slotRepoStub) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error {
	s.upserted = append(s.upserted, slots...)
	return nil
}

func (s *slotRepoStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	return s.upserted, nil
}

type cacheRepoStub struct {
	store map[string][]byte
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{store: make(map[string][]byte)}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store[key] = raw
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(c.store, pattern)
	return nil
}

type txProviderStub struct{ db *sqlx.DB }

func (t txProviderStub) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func gradesJSON(t *testing.T, grades []int) types.JSONText {
	t.Helper()
	raw, err := json.Marshal(grades)
	require.NoError(t, err)
	return types.JSONText(raw)
}

func scalarJSON(t *testing.T, v int) types.JSONText {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return types.JSONText(raw)
}

func newSchedulerServiceFixture(t *testing.T, db *sqlx.DB) *ScheduleGeneratorService {
	t.Helper()
	term := &models.Term{ID: "term-1", DailyPeriods: 4, SaturdayPeriods: 0}
	classes := []models.Class{
		{ID: "class-1", Grade: "10", Section: "A"},
	}
	classByID := map[string]*models.Class{"class-1": &classes[0]}
	subjects := []models.Subject{
		{ID: "math", Name: "Mathematics", Grades: gradesJSON(t, []int{10}), WeeklyHours: scalarJSON(t, 2)},
		{ID: "science", Name: "Science", Grades: gradesJSON(t, []int{10}), WeeklyHours: scalarJSON(t, 2)},
	}
	teachers := []models.Teacher{
		{ID: "teacher-1", FullName: "Teacher One", Active: true},
		{ID: "teacher-2", FullName: "Teacher Two", Active: true},
	}
	assignments := []models.TeacherAssignment{
		{TeacherID: "teacher-1", ClassID: "class-1", SubjectID: "math", TermID: "term-1"},
		{TeacherID: "teacher-2", ClassID: "class-1", SubjectID: "science", TermID: "term-1"},
	}

	return NewScheduleGeneratorService(
		termReaderStub{term: term},
		classReaderStub{all: classes, byID: classByID},
		subjectReaderListStub{all: subjects},
		teacherReaderActiveStub{all: teachers},
		assignmentReaderStub{all: assignments},
		preferenceReaderStub{byTeacher: map[string]*models.TeacherPreference{}},
		classroomReaderStub{},
		&scheduleFeederStub{},
		&semesterRepoStub{},
		&slotRepoStub{},
		newCacheRepoStub(),
		txProviderStub{db: db},
		nil,
		validator.New(),
		zap.NewNop(),
		ScheduleGeneratorConfig{},
	)
}

func TestScheduleGeneratorServiceGenerateProducesFullGrid(t *testing.T) {
	service := newSchedulerServiceFixture(t, nil)

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{TermID: "term-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Equal(t, 4*5, len(resp.Slots))
	assert.Greater(t, resp.Stats.AssignedSlots, 0)
}

func TestScheduleGeneratorServiceGenerateUnknownTerm(t *testing.T) {
	service := newSchedulerServiceFixture(t, nil)
	service.terms = termReaderStub{err: sql.ErrNoRows}

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{TermID: "missing"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScheduleGeneratorServiceGenerateRejectsInvalidMode(t *testing.T) {
	service := newSchedulerServiceFixture(t, nil)

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{TermID: "term-1", Mode: "BOGUS"})
	require.Error(t, err)
}

func TestScheduleGeneratorServiceSaveExtractsClassSlots(t *testing.T) {
	db, _ := newMockTxDB(t)
	service := newSchedulerServiceFixture(t, db)

	genResp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{TermID: "term-1"})
	require.NoError(t, err)

	scheduleID, err := service.Save(context.Background(), dto.SaveScheduleRequest{
		ProposalID: genResp.ProposalID,
		ClassID:    "class-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "semester-1", scheduleID)

	repo := service.semesters.(*semesterRepoStub)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "class-1", repo.created[0].ClassID)

	slots := service.slots.(*slotRepoStub)
	assert.NotEmpty(t, slots.upserted)
}

func TestScheduleGeneratorServiceSaveUnknownProposal(t *testing.T) {
	service := newSchedulerServiceFixture(t, nil)

	_, err := service.Save(context.Background(), dto.SaveScheduleRequest{
		ProposalID: "does-not-exist",
		ClassID:    "class-1",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScheduleGeneratorServiceGetSlotsUnknownSchedule(t *testing.T) {
	service := newSchedulerServiceFixture(t, nil)

	_, err := service.GetSlots(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScheduleGeneratorServiceDeleteRejectsPublished(t *testing.T) {
	service := newSchedulerServiceFixture(t, nil)
	repo := service.semesters.(*semesterRepoStub)
	repo.byID = map[string]*models.SemesterSchedule{
		"published-1": {ID: "published-1", Status: models.SemesterScheduleStatusPublished},
	}

	err := service.Delete(context.Background(), "published-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestConvertSubjectBroadcastsScalarHours(t *testing.T) {
	subject := models.Subject{
		ID:     "math",
		Name:   "Mathematics",
		Grades: gradesJSON(t, []int{10, 11}),
		WeeklyHours: scalarJSON(t, 3),
	}
	converted, err := convertSubject(subject)
	require.NoError(t, err)
	assert.Equal(t, 3, converted.WeeklyHours[10])
	assert.Equal(t, 3, converted.WeeklyHours[11])
}

func TestConvertSubjectPerGradeHours(t *testing.T) {
	raw, err := json.Marshal(map[string]int{"10": 4, "11": 2})
	require.NoError(t, err)
	subject := models.Subject{
		ID:          "math",
		Grades:      gradesJSON(t, []int{10, 11}),
		WeeklyHours: types.JSONText(raw),
	}
	converted, convErr := convertSubject(subject)
	require.NoError(t, convErr)
	assert.Equal(t, 4, converted.WeeklyHours[10])
	assert.Equal(t, 2, converted.WeeklyHours[11])
}
