package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

type mockClassRepo struct {
	items     map[string]*models.Class
	nameIndex map[string]string
	schedules map[string]int
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	return nil, 0, nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if class, ok := m.items[id]; ok {
		cp := *class
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	if class, ok := m.items[id]; ok {
		return &models.ClassDetail{Class: *class}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	if owner, ok := m.nameIndex[name]; ok {
		if excludeID == "" || owner != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.items == nil {
		m.items = make(map[string]*models.Class)
	}
	if class.ID == "" {
		class.ID = "generated"
	}
	cp := *class
	m.items[class.ID] = &cp
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	cp := *class
	m.items[class.ID] = &cp
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func (m *mockClassRepo) CountSchedules(ctx context.Context, classID string) (int, error) {
	return m.schedules[classID], nil
}

func TestClassServiceCreate(t *testing.T) {
	repo := &mockClassRepo{}
	svc := NewClassService(repo, &mockSubjectRepoEmpty{}, validator.New(), zap.NewNop())

	class, err := svc.Create(context.Background(), CreateClassRequest{
		Name:    "10 IPA 1",
		Grade:   "10",
		Section: "1",
		Track:   "IPA",
	})
	require.NoError(t, err)
	assert.Equal(t, "1", class.Section)
	assert.Len(t, repo.items, 1)
}

func TestClassServiceCreateDuplicateName(t *testing.T) {
	repo := &mockClassRepo{nameIndex: map[string]string{"10 IPA 1": "other"}}
	svc := NewClassService(repo, &mockSubjectRepoEmpty{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateClassRequest{
		Name:    "10 IPA 1",
		Grade:   "10",
		Section: "1",
		Track:   "IPA",
	})
	require.Error(t, err)
}

func TestClassServiceUpdate(t *testing.T) {
	repo := &mockClassRepo{
		items: map[string]*models.Class{
			"c1": {ID: "c1", Name: "10 IPA 1", Grade: "10", Section: "1", Track: "IPA"},
		},
	}
	svc := NewClassService(repo, &mockSubjectRepoEmpty{}, validator.New(), zap.NewNop())

	updated, err := svc.Update(context.Background(), "c1", UpdateClassRequest{
		Name:    "10 IPA 1",
		Grade:   "10",
		Section: "2",
		Track:   "IPA",
	})
	require.NoError(t, err)
	assert.Equal(t, "2", updated.Section)
}

func TestClassServiceDeleteWithSchedulesBlocked(t *testing.T) {
	repo := &mockClassRepo{
		items:     map[string]*models.Class{"c1": {ID: "c1", Name: "10 IPA 1"}},
		schedules: map[string]int{"c1": 2},
	}
	svc := NewClassService(repo, &mockSubjectRepoEmpty{}, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "c1")
	require.Error(t, err)
}

type mockSubjectRepoEmpty struct{}

func (mockSubjectRepoEmpty) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	return nil, 0, nil
}
func (mockSubjectRepoEmpty) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	return &models.Subject{ID: id}, nil
}
func (mockSubjectRepoEmpty) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	return false, nil
}
func (mockSubjectRepoEmpty) Create(ctx context.Context, subject *models.Subject) error { return nil }
func (mockSubjectRepoEmpty) Update(ctx context.Context, subject *models.Subject) error { return nil }
func (mockSubjectRepoEmpty) Delete(ctx context.Context, id string) error               { return nil }
func (mockSubjectRepoEmpty) CountAssignments(ctx context.Context, id string) (int, error) {
	return 0, nil
}
