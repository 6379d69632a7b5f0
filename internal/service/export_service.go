package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
	"github.com/noah-isme/sma-adp-scheduler/internal/scheduler"
	"github.com/noah-isme/sma-adp-scheduler/pkg/export"
	"github.com/noah-isme/sma-adp-scheduler/pkg/storage"
)

type exportSemesterScheduleReader interface {
	ListByTermSemester(ctx context.Context, termID, semesterID string) ([]models.SemesterSchedule, error)
}

type exportSemesterScheduleSlotReader interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	GA        scheduler.GAConfig
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders a semester's weekly timetable to CSV/PDF, either by
// running the genetic search fresh (models.ReportTypeScheduleGenerate) or by
// re-rendering a previously saved proposal (models.ReportTypeTimetableExport).
type ExportService struct {
	mappings  schedulerCourseMappingReader
	prefs     schedulerFacultyPreferenceReader
	courses   schedulerCourseReader
	faculty   schedulerFacultyReader
	schedules exportSemesterScheduleReader
	slots     exportSemesterScheduleSlotReader
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(
	mappings schedulerCourseMappingReader,
	prefs schedulerFacultyPreferenceReader,
	courses schedulerCourseReader,
	faculty schedulerFacultyReader,
	schedules exportSemesterScheduleReader,
	slots exportSemesterScheduleSlotReader,
	fileStore fileStorage,
	signer *storage.SignedURLSigner,
	cfg ExportConfig,
	logger *zap.Logger,
	csv csvRenderer,
	pdf pdfRenderer,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		mappings:  mappings,
		prefs:     prefs,
		courses:   courses,
		faculty:   faculty,
		schedules: schedules,
		slots:     slots,
		storage:   fileStore,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds the timetable dataset for a job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	termPart := sanitizeFilename(job.Params.TermID)
	name := fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), termPart, timestamp, job.Params.Format)
	return name
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	if job.Params.SemesterID == nil || *job.Params.SemesterID == "" {
		return export.Dataset{}, "", fmt.Errorf("semesterId is required for timetable exports")
	}
	semesterID := *job.Params.SemesterID

	switch job.Type {
	case models.ReportTypeScheduleGenerate:
		return s.buildGeneratedDataset(ctx, job.Params.TermID, semesterID)
	case models.ReportTypeTimetableExport:
		return s.buildSavedDataset(ctx, job.Params.TermID, semesterID)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

// buildGeneratedDataset runs the genetic search fresh against the semester's
// course mappings and renders the resulting chromosome, mirroring
// ScheduleGeneratorService.buildInstance without persisting a proposal.
func (s *ExportService) buildGeneratedDataset(ctx context.Context, termID, semesterID string) (export.Dataset, string, error) {
	mappings, err := s.mappings.ListBySemester(ctx, semesterID)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load course mappings: %w", err)
	}
	if len(mappings) == 0 {
		return export.Dataset{}, "", fmt.Errorf("no course mappings defined for this semester")
	}

	instance := scheduler.Instance{
		Semesters:  []scheduler.Semester{{ID: semesterID}},
		CourseMaps: make([]scheduler.CourseMapping, 0, len(mappings)),
	}
	courseSeen := make(map[string]struct{})
	facultySeen := make(map[string]struct{})

	for _, mapping := range mappings {
		instance.CourseMaps = append(instance.CourseMaps, scheduler.CourseMapping{
			ID:         mapping.ID,
			SemesterID: mapping.SemesterID,
			CourseID:   mapping.CourseID,
			FacultyID:  mapping.FacultyID,
			FacultyID2: mapping.FacultyID2,
		})
		if _, ok := courseSeen[mapping.CourseID]; !ok {
			course, err := s.courses.FindByID(ctx, mapping.CourseID)
			if err != nil {
				if err == sql.ErrNoRows {
					continue
				}
				return export.Dataset{}, "", fmt.Errorf("load course %s: %w", mapping.CourseID, err)
			}
			courseSeen[mapping.CourseID] = struct{}{}
			instance.Courses = append(instance.Courses, scheduler.Course{
				ID:          course.ID,
				Type:        courseTypeToScheduler(course.Type),
				WeeklyHours: course.WeeklyHours,
			})
		}
		for _, fid := range facultyIDs(mapping.FacultyID, mapping.FacultyID2) {
			if _, ok := facultySeen[fid]; ok {
				continue
			}
			if _, err := s.faculty.FindByID(ctx, fid); err != nil {
				if err == sql.ErrNoRows {
					continue
				}
				return export.Dataset{}, "", fmt.Errorf("load faculty %s: %w", fid, err)
			}
			facultySeen[fid] = struct{}{}
			instance.Faculty = append(instance.Faculty, scheduler.Faculty{ID: fid})
		}
	}

	if s.prefs != nil {
		prefs, err := s.prefs.ListBySemester(ctx, semesterID)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load faculty preferences: %w", err)
		}
		for _, pref := range prefs {
			instance.Preferences = append(instance.Preferences, scheduler.FacultyPreference{
				FacultyID:   pref.FacultyID,
				Day:         pref.DayOfWeek,
				PeriodStart: pref.PeriodStart,
				PeriodEnd:   pref.PeriodEnd,
				Kind:        preferenceKindToScheduler(pref.Kind),
			})
		}
	}

	templates, _ := scheduler.DeriveClasses(instance)
	if len(templates) == 0 {
		return export.Dataset{}, "", fmt.Errorf("no schedulable classes derived for this semester")
	}
	chromosome, err := scheduler.Run(ctx, templates, instance, s.cfg.GA)
	if err != nil && err != scheduler.ErrDegenerateSearch {
		return export.Dataset{}, "", fmt.Errorf("run genetic search: %w", err)
	}

	rows := make([]map[string]string, 0, len(chromosome.Genes))
	for _, gene := range chromosome.Genes {
		rows = append(rows, s.geneRow(ctx, gene))
	}
	sortTimetableRows(rows)

	dataset := export.Dataset{Headers: timetableHeaders, Rows: rows}
	title := fmt.Sprintf("Generated Timetable %s / %s (score %d)", termID, semesterID, chromosome.Score)
	return dataset, title, nil
}

// buildSavedDataset renders the most recently saved semester schedule
// version rather than re-running the search.
func (s *ExportService) buildSavedDataset(ctx context.Context, termID, semesterID string) (export.Dataset, string, error) {
	versions, err := s.schedules.ListByTermSemester(ctx, termID, semesterID)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load semester schedules: %w", err)
	}
	if len(versions) == 0 {
		return export.Dataset{}, "", fmt.Errorf("no saved schedule for this semester")
	}
	latest := versions[0]
	for _, v := range versions {
		if v.Version > latest.Version {
			latest = v
		}
	}

	slots, err := s.slots.ListBySchedule(ctx, latest.ID)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load schedule slots: %w", err)
	}

	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		gene := scheduler.Gene{
			CourseID:     slot.CourseID,
			FacultyIDs:   facultyIDs(slot.FacultyID, slot.FacultyID2),
			Day:          slot.DayOfWeek,
			StartPeriod:  slot.TimeSlot,
			PeriodsCount: 1,
			IsLab:        slot.IsLab,
		}
		if slot.IsLab {
			gene.PeriodsCount = 2
		}
		rows = append(rows, s.geneRow(ctx, gene))
	}
	sortTimetableRows(rows)

	dataset := export.Dataset{Headers: timetableHeaders, Rows: rows}
	title := fmt.Sprintf("Timetable %s / %s (v%d, %s)", termID, semesterID, latest.Version, latest.Status)
	return dataset, title, nil
}

var timetableHeaders = []string{"Day", "Start Period", "End Period", "Course", "Type", "Faculty"}

func (s *ExportService) geneRow(ctx context.Context, gene scheduler.Gene) map[string]string {
	courseLabel := gene.CourseID
	if course, err := s.courses.FindByID(ctx, gene.CourseID); err == nil && course != nil {
		courseLabel = fmt.Sprintf("%s - %s", course.Code, course.Name)
	}
	facultyLabels := make([]string, 0, len(gene.FacultyIDs))
	for _, fid := range gene.FacultyIDs {
		label := fid
		if faculty, err := s.faculty.FindByID(ctx, fid); err == nil && faculty != nil {
			label = faculty.FullName
		}
		facultyLabels = append(facultyLabels, label)
	}
	kind := "Theory"
	if gene.IsLab {
		kind = "Lab"
	}
	return map[string]string{
		"Day":          dayName(gene.Day),
		"Start Period": strconv.Itoa(gene.StartPeriod),
		"End Period":   strconv.Itoa(gene.EndPeriod()),
		"Course":       courseLabel,
		"Type":         kind,
		"Faculty":      strings.Join(facultyLabels, " & "),
	}
}

func sortTimetableRows(rows []map[string]string) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i]["Day"] != rows[j]["Day"] {
			return rows[i]["Day"] < rows[j]["Day"]
		}
		return rows[i]["Start Period"] < rows[j]["Start Period"]
	})
}

func dayName(day int) string {
	names := []string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if day < 1 || day > 6 {
		return strconv.Itoa(day)
	}
	return names[day]
}

func facultyIDs(primary string, secondary *string) []string {
	ids := []string{primary}
	if secondary != nil && *secondary != "" {
		ids = append(ids, *secondary)
	}
	return ids
}
