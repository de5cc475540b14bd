package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/pkg/export"
)

type exportSlotReader interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error)
}

type exportSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type exportTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFormat selects the rendered output of a schedule export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "CSV"
	ExportFormatPDF ExportFormat = "PDF"
)

// ExportResult carries the rendered bytes and the content type a handler
// should set on the response.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders a stored semester schedule's slots directly to
// CSV or PDF bytes. There is no intermediate storage: the caller streams
// the result straight to the HTTP response.
type ExportService struct {
	slots    exportSlotReader
	subjects exportSubjectReader
	teachers exportTeacherReader
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(slots exportSlotReader, subjects exportSubjectReader, teachers exportTeacherReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{slots: slots, subjects: subjects, teachers: teachers, csv: csv, pdf: pdf, logger: logger}
}

// Generate renders every slot of scheduleID into the requested format.
func (s *ExportService) Generate(ctx context.Context, scheduleID string, format ExportFormat) (*ExportResult, error) {
	rows, err := s.slots.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("load schedule slots: %w", err)
	}
	dataset := s.buildDataset(ctx, rows)
	title := fmt.Sprintf("Timetable %s", scheduleID)

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, fmt.Errorf("render csv: %w", err)
		}
		return &ExportResult{Filename: filename(scheduleID, "csv"), ContentType: "text/csv", Data: payload}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		return &ExportResult{Filename: filename(scheduleID, "pdf"), ContentType: "application/pdf", Data: payload}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func (s *ExportService) buildDataset(ctx context.Context, rows []models.SemesterScheduleSlot) export.Dataset {
	headers := []string{"Day", "Period", "Subject", "Teacher", "Room", "Violation"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, slot := range rows {
		dataRows = append(dataRows, map[string]string{
			"Day":       slot.DayOfWeek,
			"Period":    strconv.Itoa(slot.TimeSlot),
			"Subject":   s.subjectName(ctx, slot.SubjectID),
			"Teacher":   s.teacherName(ctx, slot.TeacherID),
			"Room":      roomValue(slot.Room),
			"Violation": slot.Severity,
		})
	}
	return export.Dataset{Headers: headers, Rows: dataRows}
}

func (s *ExportService) subjectName(ctx context.Context, id string) string {
	if s.subjects == nil || id == "" {
		return id
	}
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		return id
	}
	return subject.Name
}

func (s *ExportService) teacherName(ctx context.Context, id string) string {
	if s.teachers == nil || id == "" {
		return id
	}
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		return id
	}
	return teacher.FullName
}

func roomValue(room *string) string {
	if room == nil {
		return ""
	}
	return *room
}

func filename(scheduleID, ext string) string {
	safe := strings.ReplaceAll(scheduleID, "/", "-")
	return fmt.Sprintf("timetable_%s.%s", safe, ext)
}
