package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
)

type scheduleRepoStub struct {
	schedules       []models.Schedule
	semesterQueries int
}

func (s *scheduleRepoStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	return s.schedules, len(s.schedules), nil
}

func (s *scheduleRepoStub) ListBySemester(ctx context.Context, semesterID string) ([]models.Schedule, error) {
	s.semesterQueries++
	var out []models.Schedule
	for _, sched := range s.schedules {
		if sched.SemesterID == semesterID {
			out = append(out, sched)
		}
	}
	return out, nil
}

func (s *scheduleRepoStub) ListByFaculty(ctx context.Context, facultyID string) ([]models.Schedule, error) {
	return s.schedules, nil
}

func (s *scheduleRepoStub) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	for _, sched := range s.schedules {
		if sched.ID == id {
			found := sched
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleRepoStub) FindConflicts(ctx context.Context, termID, dayOfWeek, timeSlot string) ([]models.Schedule, error) {
	return nil, nil
}

func (s *scheduleRepoStub) Create(ctx context.Context, schedule *models.Schedule) error {
	schedule.ID = "sched-" + schedule.CourseID
	s.schedules = append(s.schedules, *schedule)
	return nil
}

func (s *scheduleRepoStub) Update(ctx context.Context, schedule *models.Schedule) error {
	return nil
}

func (s *scheduleRepoStub) Delete(ctx context.Context, id string) error {
	return nil
}

func newScheduleServiceFixture(repo *scheduleRepoStub) (*ScheduleService, *fakeCacheRepository) {
	cacheRepo := newFakeCacheRepository()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	return NewScheduleService(repo, nil, zap.NewNop(), cacheSvc), cacheRepo
}

func TestScheduleServiceListBySemesterReadsThroughCache(t *testing.T) {
	repo := &scheduleRepoStub{
		schedules: []models.Schedule{
			{ID: "sched-1", TermID: "term-1", SemesterID: "sem-1", CourseID: "course-1", FacultyID: "fac-1", DayOfWeek: "MONDAY", TimeSlot: "1", Room: "R1"},
		},
	}
	svc, _ := newScheduleServiceFixture(repo)

	first, hit, err := svc.ListBySemester(context.Background(), "sem-1")
	require.NoError(t, err)
	assert.False(t, hit, "first read misses and fills the cache")
	require.Len(t, first, 1)

	second, hit, err := svc.ListBySemester(context.Background(), "sem-1")
	require.NoError(t, err)
	assert.True(t, hit, "second read is served from the cache")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.semesterQueries, "repository queried once")
}

func TestScheduleServiceCreateInvalidatesSemesterCache(t *testing.T) {
	repo := &scheduleRepoStub{}
	svc, _ := newScheduleServiceFixture(repo)

	_, _, err := svc.ListBySemester(context.Background(), "sem-1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateScheduleRequest{
		TermID:     "term-1",
		SemesterID: "sem-1",
		CourseID:   "course-1",
		FacultyID:  "fac-1",
		DayOfWeek:  "monday",
		TimeSlot:   "1",
		Room:       "R1",
	})
	require.NoError(t, err)

	list, hit, err := svc.ListBySemester(context.Background(), "sem-1")
	require.NoError(t, err)
	assert.False(t, hit, "create invalidates the semester's cached list")
	require.Len(t, list, 1)
	assert.Equal(t, "MONDAY", list[0].DayOfWeek)
}

func TestScheduleServiceListBySemesterUncachedWhenCacheDisabled(t *testing.T) {
	repo := &scheduleRepoStub{
		schedules: []models.Schedule{
			{ID: "sched-1", SemesterID: "sem-1"},
		},
	}
	svc := NewScheduleService(repo, nil, zap.NewNop(), NewCacheService(nil, nil, time.Minute, zap.NewNop(), false))

	for i := 0; i < 2; i++ {
		list, hit, err := svc.ListBySemester(context.Background(), "sem-1")
		require.NoError(t, err)
		assert.False(t, hit)
		require.Len(t, list, 1)
	}
	assert.Equal(t, 2, repo.semesterQueries)
}
