package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func gene(semesterID, courseID string, faculty []string, periodsCount int, isLab bool, day, start int) Gene {
	return Gene{
		SemesterID:   semesterID,
		CourseID:     courseID,
		FacultyIDs:   faculty,
		PeriodsCount: periodsCount,
		IsLab:        isLab,
		Day:          day,
		StartPeriod:  start,
	}
}

func TestScoreUnplacedGeneIsH0(t *testing.T) {
	e := NewEvaluator(Instance{})
	c := Chromosome{Genes: []Gene{gene("s1", "c1", []string{"f1"}, 1, false, unplaced, unplaced)}}
	b := e.ScoreBreakdown(c)
	assert.Equal(t, weightH0, b.H0)
	assert.Equal(t, 0, b.Total()-weightH0)
}

func TestScoreSemesterCollisionIsH1(t *testing.T) {
	e := NewEvaluator(Instance{})
	c := Chromosome{Genes: []Gene{
		gene("s1", "c1", []string{"f1"}, 1, false, 1, 1),
		gene("s1", "c2", []string{"f2"}, 1, false, 1, 1),
	}}
	b := e.ScoreBreakdown(c)
	assert.Equal(t, weightH1, b.H1)
	assert.Equal(t, 0, b.H2)
}

func TestScoreFacultyCollisionIsH2(t *testing.T) {
	e := NewEvaluator(Instance{})
	c := Chromosome{Genes: []Gene{
		gene("s1", "c1", []string{"f1"}, 1, false, 1, 1),
		gene("s2", "c2", []string{"f1"}, 1, false, 1, 1),
	}}
	b := e.ScoreBreakdown(c)
	assert.Equal(t, weightH2, b.H2)
	assert.Equal(t, 0, b.H1)
}

func TestScoreBlockedSlotIsH3(t *testing.T) {
	instance := Instance{
		Preferences: []FacultyPreference{
			{FacultyID: "f1", Day: 1, PeriodStart: 1, PeriodEnd: 2, Kind: PreferenceBlocked},
		},
	}
	e := NewEvaluator(instance)
	c := Chromosome{Genes: []Gene{gene("s1", "c1", []string{"f1"}, 1, false, 1, 1)}}
	b := e.ScoreBreakdown(c)
	assert.Equal(t, weightH3, b.H3)
}

func TestScoreLabShapeViolationIsH4(t *testing.T) {
	e := NewEvaluator(Instance{})
	badLab := gene("s1", "lab1", []string{"f1", "f2"}, 3, true, 1, 5)
	c := Chromosome{Genes: []Gene{badLab}}
	b := e.ScoreBreakdown(c)
	assert.Equal(t, weightH4, b.H4)
}

func TestScoreTheoryEndPeriodOverflowIsH5(t *testing.T) {
	e := NewEvaluator(Instance{})
	c := Chromosome{Genes: []Gene{gene("s1", "c1", []string{"f1"}, 1, false, 1, 5)}}
	b := e.ScoreBreakdown(c)
	assert.Equal(t, weightH5, b.H5)
}

func TestScoreLabCrossingBreakIsS2(t *testing.T) {
	e := NewEvaluator(Instance{})
	c := Chromosome{Genes: []Gene{gene("s1", "lab1", []string{"f1", "f2"}, 2, true, 1, 2)}}
	b := e.ScoreBreakdown(c)
	assert.Equal(t, weightS2, b.S2)
}

func TestScoreSingleHourDayIsS5(t *testing.T) {
	e := NewEvaluator(Instance{})
	c := Chromosome{Genes: []Gene{gene("s1", "c1", []string{"f1"}, 1, false, 1, 1)}}
	b := e.ScoreBreakdown(c)
	assert.Equal(t, weightS5, b.S5)
}

func TestScoreZeroWhenNoViolations(t *testing.T) {
	instance := Instance{
		Preferences: []FacultyPreference{
			{FacultyID: "f1", Day: 1, PeriodStart: 1, PeriodEnd: 2, Kind: PreferencePreferred},
		},
	}
	e := NewEvaluator(instance)
	c := Chromosome{Genes: []Gene{
		gene("s1", "c1", []string{"f1"}, 1, false, 1, 1),
		gene("s1", "c2", []string{"f1"}, 1, false, 1, 2),
	}}
	b := e.ScoreBreakdown(c)
	assert.Equal(t, 0, b.Total())
	assert.Equal(t, 0, e.Score(c))
}

func TestScoreS1FiresForFacultyWithNoPreferredWindowDeclared(t *testing.T) {
	// Documented open-question resolution: a faculty with zero PREFERRED
	// windows is treated as preferring nothing, so every placed slot is
	// "not preferred" and S1 applies — matching the source's behavior
	// rather than silently exempting unpreferenced faculty.
	e := NewEvaluator(Instance{})
	c := Chromosome{Genes: []Gene{gene("s1", "c1", []string{"f1"}, 1, false, 1, 1)}}
	b := e.ScoreBreakdown(c)
	assert.Equal(t, weightS1, b.S1)
}

func TestScoreIsPure(t *testing.T) {
	e := NewEvaluator(Instance{})
	c := Chromosome{Genes: []Gene{gene("s1", "c1", []string{"f1"}, 1, false, 1, 1)}}
	first := e.Score(c)
	second := e.Score(c)
	assert.Equal(t, first, second)
}

func TestGapPenaltyAccountsForSpanMinusOccupied(t *testing.T) {
	e := NewEvaluator(Instance{})
	c := Chromosome{Genes: []Gene{
		gene("s1", "c1", []string{"f1"}, 1, false, 1, 1),
		gene("s1", "c2", []string{"f2"}, 1, false, 1, 4),
	}}
	b := e.ScoreBreakdown(c)
	assert.Equal(t, weightS3*2, b.S3)
}
