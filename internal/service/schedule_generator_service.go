package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-scheduler/internal/dto"
	"github.com/noah-isme/sma-adp-scheduler/internal/models"
	"github.com/noah-isme/sma-adp-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/sma-adp-scheduler/pkg/errors"
)

type semesterScheduleRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.SemesterSchedule) error
	ListByTermSemester(ctx context.Context, termID, semesterID string) ([]models.SemesterSchedule, error)
	FindByID(ctx context.Context, id string) (*models.SemesterSchedule, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.SemesterScheduleStatus, meta types.JSONText) error
}

type semesterScheduleSlotRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SemesterScheduleSlot) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.SemesterScheduleSlot, error)
}

type schedulerCourseMappingReader interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.CourseMapping, error)
}

type schedulerFacultyPreferenceReader interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.FacultyPreference, error)
}

type schedulerCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type schedulerFacultyReader interface {
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
}

type schedulerSemesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type schedulerTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type scheduleReplacer interface {
	ReplaceForSemester(ctx context.Context, termID, semesterID string, schedules []models.Schedule) error
}

// ScheduleGeneratorService builds genetic-algorithm timetable proposals and
// persists them as versioned semester schedules.
type ScheduleGeneratorService struct {
	terms     schedulerTermReader
	semesters schedulerSemesterReader
	courses   schedulerCourseReader
	faculty   schedulerFacultyReader
	mappings  schedulerCourseMappingReader
	prefs     schedulerFacultyPreferenceReader
	schedules semesterScheduleRepository
	slots     semesterScheduleSlotRepository
	daily     scheduleReplacer
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	store     *proposalStore
	gaDefault scheduler.GAConfig
}

// ScheduleGeneratorConfig governs generator behaviour, including the
// default genetic-algorithm tuning applied when a request supplies no
// overrides.
type ScheduleGeneratorConfig struct {
	ProposalTTL time.Duration
	GA          scheduler.GAConfig
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	terms schedulerTermReader,
	semesters schedulerSemesterReader,
	courses schedulerCourseReader,
	faculty schedulerFacultyReader,
	mappings schedulerCourseMappingReader,
	prefs schedulerFacultyPreferenceReader,
	schedules semesterScheduleRepository,
	slots semesterScheduleSlotRepository,
	daily scheduleReplacer,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
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
	return &ScheduleGeneratorService{
		terms:     terms,
		semesters: semesters,
		courses:   courses,
		faculty:   faculty,
		mappings:  mappings,
		prefs:     prefs,
		schedules: schedules,
		slots:     slots,
		daily:     daily,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		store:     newProposalStore(cfg.ProposalTTL),
		gaDefault: cfg.GA,
	}
}

// Generate derives gene templates from a semester's course mappings, runs
// the genetic search, and caches the resulting proposal for later Save.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}
	if err := s.ensureTermAndSemester(ctx, req.TermID, req.SemesterID); err != nil {
		return nil, err
	}

	instance, err := s.buildInstance(ctx, req.SemesterID)
	if err != nil {
		return nil, err
	}

	templates, warnings := scheduler.DeriveClasses(*instance)
	if len(templates) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no schedulable course mappings found for this semester")
	}

	cfg := s.resolveGAConfig(req.GA)
	jobID := req.SemesterID
	genStart := time.Now()
	cfg.Progress = func(generation, totalGenerations, bestScore int) {
		now := time.Now()
		s.metrics.ObserveSchedulerGeneration(jobID, float64(bestScore), now.Sub(genStart))
		genStart = now
		if generation%25 == 0 {
			s.logger.Debug("schedule generation progress",
				zap.String("semester_id", req.SemesterID),
				zap.Int("generation", generation),
				zap.Int("total_generations", totalGenerations),
				zap.Int("best_score", bestScore),
			)
		}
	}
	chromosome, err := scheduler.Run(ctx, templates, *instance, cfg)
	switch {
	case ctx.Err() != nil:
		s.metrics.RecordSchedulerRun("cancelled")
	case errors.Is(err, scheduler.ErrDegenerateSearch):
		s.metrics.RecordSchedulerRun("degenerate")
	case err != nil:
		s.metrics.RecordSchedulerRun("error")
	default:
		s.metrics.RecordSchedulerRun("solved")
	}
	if err != nil && !errors.Is(err, scheduler.ErrDegenerateSearch) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "schedule generation failed")
	}

	slotDTOs, unplaced := exportGenes(chromosome.Genes)
	breakdown := scheduler.NewEvaluator(*instance).ScoreBreakdown(chromosome)

	proposal := scheduleProposal{
		ProposalID:  uuid.NewString(),
		TermID:      req.TermID,
		SemesterID:  req.SemesterID,
		Score:       chromosome.Score,
		HardPenalty: breakdown.Hard(),
		Genes:       chromosome.Genes,
		Warnings:    warnings,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	respWarnings := make([]dto.ProposalWarning, 0, len(warnings))
	for _, w := range warnings {
		respWarnings = append(respWarnings, dto.ProposalWarning{MappingID: w.MappingID, Reason: w.Reason})
	}

	return &dto.GenerateScheduleResponse{
		ProposalID: proposal.ProposalID,
		Score:      chromosome.Score,
		Slots:      slotDTOs,
		Unplaced:   unplaced,
		Warnings:   respWarnings,
	}, nil
}

// Save persists a cached proposal as a new semester schedule version and,
// when requested, replaces the semester's published daily schedule.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if proposal.HardPenalty > 0 {
		return "", appErrors.Clone(appErrors.ErrConflict, "proposal has unresolved hard constraint violations")
	}

	metaPayload := map[string]any{
		"score":     proposal.Score,
		"generated": proposal.RequestedAt,
		"algorithm": "genetic_v1",
		"warnings":  proposal.Warnings,
	}
	metaBytes, err := json.Marshal(metaPayload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
	}

	record := &models.SemesterSchedule{
		TermID:     proposal.TermID,
		SemesterID: proposal.SemesterID,
		Status:     models.SemesterScheduleStatusDraft,
		Meta:       types.JSONText(metaBytes),
	}

	if err := s.schedules.CreateVersioned(ctx, nil, record); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester schedule")
	}

	slotModels := make([]models.SemesterScheduleSlot, 0, len(proposal.Genes))
	for _, gene := range proposal.Genes {
		if !gene.Placed() {
			continue
		}
		slotModels = append(slotModels, geneToSlotModel(record.ID, gene))
	}

	if err := s.slots.InsertBatch(ctx, nil, slotModels); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist semester schedule slots")
	}

	if req.CommitToDaily {
		if s.daily == nil {
			return "", appErrors.Clone(appErrors.ErrInternal, "daily schedule repository unavailable")
		}
		daily := make([]models.Schedule, 0, len(slotModels))
		for _, gene := range proposal.Genes {
			if !gene.Placed() {
				continue
			}
			daily = append(daily, models.Schedule{
				TermID:     proposal.TermID,
				SemesterID: proposal.SemesterID,
				CourseID:   gene.CourseID,
				FacultyID:  gene.FacultyIDs[0],
				DayOfWeek:  strconv.Itoa(gene.Day),
				TimeSlot:   strconv.Itoa(gene.StartPeriod),
			})
		}
		if err := s.daily.ReplaceForSemester(ctx, proposal.TermID, proposal.SemesterID, daily); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit daily schedules")
		}
		if err := s.schedules.UpdateStatus(ctx, nil, record.ID, models.SemesterScheduleStatusPublished, nil); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule status")
		}
	}

	s.store.Delete(req.ProposalID)
	return record.ID, nil
}

// List returns semester schedules for a term-semester tuple.
func (s *ScheduleGeneratorService) List(ctx context.Context, query dto.SemesterScheduleQuery) ([]models.SemesterSchedule, error) {
	if query.TermID == "" || query.SemesterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId and semesterId are required")
	}
	list, err := s.schedules.ListByTermSemester(ctx, query.TermID, query.SemesterID)
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
	if _, err := s.schedules.FindByID(ctx, scheduleID); err != nil {
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
	record, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester schedule")
	}
	if record.Status != models.SemesterScheduleStatusDraft {
		return appErrors.Clone(appErrors.ErrFinalized, "only draft schedules can be deleted")
	}
	if err := s.schedules.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester schedule")
	}
	return nil
}

func (s *ScheduleGeneratorService) ensureTermAndSemester(ctx context.Context, termID, semesterID string) error {
	if s.terms != nil {
		if _, err := s.terms.FindByID(ctx, termID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "term not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
		}
	}
	if s.semesters != nil {
		if _, err := s.semesters.FindByID(ctx, semesterID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
		}
	}
	return nil
}

// buildInstance assembles a scheduler.Instance from the course mappings
// declared for one semester, resolving each mapping's course and faculty
// records and the preference windows of every faculty member involved.
func (s *ScheduleGeneratorService) buildInstance(ctx context.Context, semesterID string) (*scheduler.Instance, error) {
	mappings, err := s.mappings.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course mappings")
	}
	if len(mappings) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no course mappings defined for this semester")
	}

	instance := &scheduler.Instance{
		Semesters:  []scheduler.Semester{{ID: semesterID}},
		CourseMaps: make([]scheduler.CourseMapping, 0, len(mappings)),
	}

	courseCache := make(map[string]scheduler.Course)
	facultyCache := make(map[string]struct{})

	for _, mapping := range mappings {
		instance.CourseMaps = append(instance.CourseMaps, scheduler.CourseMapping{
			ID:         mapping.ID,
			SemesterID: mapping.SemesterID,
			CourseID:   mapping.CourseID,
			FacultyID:  mapping.FacultyID,
			FacultyID2: mapping.FacultyID2,
		})

		if _, ok := courseCache[mapping.CourseID]; !ok {
			course, err := s.courses.FindByID(ctx, mapping.CourseID)
			if err != nil {
				if err == sql.ErrNoRows {
					continue
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
			}
			courseCache[mapping.CourseID] = scheduler.Course{
				ID:          course.ID,
				Type:        courseTypeToScheduler(course.Type),
				WeeklyHours: course.WeeklyHours,
			}
			instance.Courses = append(instance.Courses, courseCache[mapping.CourseID])
		}

		if err := s.collectFaculty(ctx, mapping.FacultyID, facultyCache, instance); err != nil {
			return nil, err
		}
		if mapping.FacultyID2 != nil {
			if err := s.collectFaculty(ctx, *mapping.FacultyID2, facultyCache, instance); err != nil {
				return nil, err
			}
		}
	}

	if s.prefs != nil {
		prefs, err := s.prefs.ListBySemester(ctx, semesterID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty preferences")
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

	return instance, nil
}

func (s *ScheduleGeneratorService) collectFaculty(ctx context.Context, facultyID string, seen map[string]struct{}, instance *scheduler.Instance) error {
	if _, ok := seen[facultyID]; ok {
		return nil
	}
	if s.faculty != nil {
		if _, err := s.faculty.FindByID(ctx, facultyID); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
		}
	}
	seen[facultyID] = struct{}{}
	instance.Faculty = append(instance.Faculty, scheduler.Faculty{ID: facultyID})
	return nil
}

func (s *ScheduleGeneratorService) resolveGAConfig(overrides *dto.GAOverrides) scheduler.GAConfig {
	cfg := s.gaDefault
	if overrides == nil {
		return cfg
	}
	if overrides.PopulationSize > 0 {
		cfg.PopulationSize = overrides.PopulationSize
	}
	if overrides.Generations > 0 {
		cfg.Generations = overrides.Generations
	}
	if overrides.TournamentSize > 0 {
		cfg.TournamentSize = overrides.TournamentSize
	}
	if overrides.AcceptanceThreshold != nil {
		cfg.AcceptanceThreshold = overrides.AcceptanceThreshold
	}
	if overrides.Seed != nil {
		cfg.Seed = *overrides.Seed
	}
	return cfg
}

func courseTypeToScheduler(t models.CourseType) scheduler.CourseType {
	if t == models.CourseTypeLab {
		return scheduler.CourseTypeLab
	}
	return scheduler.CourseTypeTheory
}

func preferenceKindToScheduler(k models.PreferenceKind) scheduler.PreferenceKind {
	if k == models.PreferenceBlocked {
		return scheduler.PreferenceBlocked
	}
	return scheduler.PreferencePreferred
}

func geneToSlotModel(scheduleID string, gene scheduler.Gene) models.SemesterScheduleSlot {
	slot := models.SemesterScheduleSlot{
		SemesterScheduleID: scheduleID,
		DayOfWeek:          gene.Day,
		TimeSlot:           gene.StartPeriod,
		CourseID:           gene.CourseID,
		IsLab:              gene.IsLab,
	}
	if len(gene.FacultyIDs) > 0 {
		slot.FacultyID = gene.FacultyIDs[0]
	}
	if len(gene.FacultyIDs) > 1 {
		slot.FacultyID2 = &gene.FacultyIDs[1]
	}
	return slot
}

func exportGenes(genes []scheduler.Gene) ([]dto.ScheduleSlotProposal, int) {
	slots := make([]dto.ScheduleSlotProposal, 0, len(genes))
	unplaced := 0
	for _, gene := range genes {
		if !gene.Placed() {
			unplaced++
			continue
		}
		s := dto.ScheduleSlotProposal{
			CourseID:    gene.CourseID,
			IsLab:       gene.IsLab,
			Day:         gene.Day,
			StartPeriod: gene.StartPeriod,
			Periods:     gene.PeriodsCount,
		}
		if len(gene.FacultyIDs) > 0 {
			s.FacultyID = gene.FacultyIDs[0]
		}
		if len(gene.FacultyIDs) > 1 {
			s.FacultyID2 = &gene.FacultyIDs[1]
		}
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day == slots[j].Day {
			return slots[i].StartPeriod < slots[j].StartPeriod
		}
		return slots[i].Day < slots[j].Day
	})
	return slots, unplaced
}

// --- Proposal cache ---

type scheduleProposal struct {
	ProposalID  string
	TermID      string
	SemesterID  string
	Score       int
	HardPenalty int
	Genes       []scheduler.Gene
	Warnings    []scheduler.Warning
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
