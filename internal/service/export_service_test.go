package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
	"github.com/noah-isme/sma-adp-scheduler/internal/scheduler"
	"github.com/noah-isme/sma-adp-scheduler/pkg/export"
	"github.com/noah-isme/sma-adp-scheduler/pkg/storage"
)

type exportMappingStub struct{}

func (exportMappingStub) ListBySemester(ctx context.Context, semesterID string) ([]models.CourseMapping, error) {
	return []models.CourseMapping{
		{ID: "map-1", SemesterID: semesterID, CourseID: "course-1", FacultyID: "faculty-1"},
	}, nil
}

type exportCourseStub struct{}

func (exportCourseStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	return &models.Course{ID: id, Code: "MTH101", Name: "Mathematics", WeeklyHours: 1, Type: models.CourseTypeTheory}, nil
}

type exportFacultyStub struct{}

func (exportFacultyStub) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	return &models.Faculty{ID: id, FullName: "Dr. Example"}, nil
}

type exportScheduleStub struct {
	versions []models.SemesterSchedule
}

func (s exportScheduleStub) ListByTermSemester(ctx context.Context, termID, semesterID string) ([]models.SemesterSchedule, error) {
	return s.versions, nil
}

type exportSlotStub struct {
	slots []models.SemesterScheduleSlot
}

func (s exportSlotStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error) {
	return s.slots, nil
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour, GA: scheduler.DefaultGAConfig()}
	svc := NewExportService(
		exportMappingStub{},
		nil,
		exportCourseStub{},
		exportFacultyStub{},
		exportScheduleStub{versions: []models.SemesterSchedule{
			{ID: "sched-1", TermID: "term-1", SemesterID: "sem-1", Version: 1, Status: models.SemesterScheduleStatusPublished},
		}},
		exportSlotStub{slots: []models.SemesterScheduleSlot{
			{ID: "slot-1", SemesterScheduleID: "sched-1", DayOfWeek: 1, TimeSlot: 1, CourseID: "course-1", FacultyID: "faculty-1"},
		}},
		store,
		signer,
		cfg,
		zap.NewNop(),
		export.NewCSVExporter(),
		export.NewPDFExporter(),
	)
	return svc, store
}

func TestExportServiceGenerateCSVFromGA(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	semesterID := "sem-1"
	job := &models.ReportJob{
		ID:        "job-1",
		Type:      models.ReportTypeScheduleGenerate,
		Params:    models.ReportJobParams{TermID: "term-1", SemesterID: &semesterID, Format: models.ReportFormatCSV},
		CreatedBy: "admin",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/export/")

	path := store.Path(result.RelativePath)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePDFFromSaved(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	semesterID := "sem-1"
	job := &models.ReportJob{
		ID:        "job-2",
		Type:      models.ReportTypeTimetableExport,
		Params:    models.ReportJobParams{TermID: "term-1", SemesterID: &semesterID, Format: models.ReportFormatPDF},
		CreatedBy: "admin",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, models.ReportFormatPDF, result.Format)

	path := filepath.Clean(store.Path(result.RelativePath))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceRequiresSemesterID(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-3",
		Type:      models.ReportTypeTimetableExport,
		Params:    models.ReportJobParams{TermID: "term-1", Format: models.ReportFormatCSV},
		CreatedBy: "admin",
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}
