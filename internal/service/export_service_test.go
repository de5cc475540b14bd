package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/pkg/export"
)

type slotReaderStub struct{}

func (slotReaderStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	return []models.SemesterScheduleSlot{
		{SemesterScheduleID: scheduleID, DayOfWeek: "MON", TimeSlot: 1, SubjectID: "math", TeacherID: "teacher-1"},
	}, nil
}

type subjectReaderStub struct{}

func (subjectReaderStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	return &models.Subject{ID: id, Name: "Mathematics"}, nil
}

type teacherReaderStub struct{}

func (teacherReaderStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	return &models.Teacher{ID: id, FullName: "Teacher One"}, nil
}

func newExportServiceForTest() *ExportService {
	return NewExportService(slotReaderStub{}, subjectReaderStub{}, teacherReaderStub{}, export.NewCSVExporter(), export.NewPDFExporter(), zap.NewNop())
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc := newExportServiceForTest()
	result, err := svc.Generate(context.Background(), "sched-1", ExportFormatCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", result.ContentType)
	require.Contains(t, string(result.Data), "Mathematics")
	require.Contains(t, string(result.Data), "Teacher One")
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc := newExportServiceForTest()
	result, err := svc.Generate(context.Background(), "sched-2", ExportFormatPDF)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
	require.Greater(t, len(result.Data), 0)
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc := newExportServiceForTest()
	_, err := svc.Generate(context.Background(), "sched-3", ExportFormat("XML"))
	require.Error(t, err)
}
