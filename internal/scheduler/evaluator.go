package scheduler

// Penalty weights. Hard constraints (H*) are priced at >=500 and should
// dominate any soft total; soft constraints (S*) are priced at <=15.
const (
	weightH0 = 1000 // gene unplaced
	weightH1 = 1000 // semester collision, per colliding gene
	weightH2 = 1000 // faculty collision, per colliding gene
	weightH3 = 500  // gene hits a faculty's blocked slot, per (gene, faculty)
	weightH4 = 500  // lab shape violation
	weightH5 = 750  // theory gene ends after period 4
	weightS1 = 10   // gene's slot not in faculty's preferred set, per (gene, faculty)
	weightS2 = 5    // 2-period lab starts at period 2 or 4 (crosses a break)
	weightS3 = 2    // per (semester, day) gap, multiplied by gap size
	weightS4 = 3    // per (faculty, day) gap, multiplied by gap size
	weightS5 = 15   // per (faculty, day) with exactly one scheduled hour
)

// Breakdown reports the per-category penalty subtotal for one scoring
// pass, primarily so tests can assert individual constraint contributions
// without re-deriving them from the total.
type Breakdown struct {
	H0, H1, H2, H3, H4, H5 int
	S1, S2, S3, S4, S5     int
}

// Total sums every category. Score() is the negation of this value.
func (b Breakdown) Total() int {
	return b.Hard() + b.S1 + b.S2 + b.S3 + b.S4 + b.S5
}

// Hard sums the hard-constraint categories only. A chromosome with
// Hard() == 0 is a usable timetable regardless of its soft penalties.
func (b Breakdown) Hard() int {
	return b.H0 + b.H1 + b.H2 + b.H3 + b.H4 + b.H5
}

// Evaluator scores candidate chromosomes against an Instance's hard and
// soft constraints. It is a pure function of (chromosome, instance); the
// only state it carries is the one-time expansion of faculty preference
// windows into per-faculty blocked/preferred slot sets.
type Evaluator struct {
	blocked   map[string]slotSet
	preferred map[string]slotSet
}

// NewEvaluator preprocesses an instance's faculty preferences once; the
// returned Evaluator may be reused to score any number of chromosomes
// derived from that same instance.
func NewEvaluator(instance Instance) *Evaluator {
	e := &Evaluator{
		blocked:   make(map[string]slotSet),
		preferred: make(map[string]slotSet),
	}
	for _, pref := range instance.Preferences {
		var bucket map[string]slotSet
		switch pref.Kind {
		case PreferenceBlocked:
			bucket = e.blocked
		case PreferencePreferred:
			bucket = e.preferred
		default:
			continue
		}
		set := bucket[pref.FacultyID]
		for p := pref.PeriodStart; p <= pref.PeriodEnd && p <= PeriodsPerDay; p++ {
			if p < 1 {
				continue
			}
			set = set.with(pref.Day, p)
		}
		bucket[pref.FacultyID] = set
	}
	return e
}

// Score returns the negated total penalty for c: 0 means no hard
// violations and no soft penalties; more negative is worse.
func (e *Evaluator) Score(c Chromosome) int {
	return -e.ScoreBreakdown(c).Total()
}

// ScoreBreakdown scores c and returns the per-category subtotal.
func (e *Evaluator) ScoreBreakdown(c Chromosome) Breakdown {
	var b Breakdown

	occSemester := make(map[string]slotSet)
	occFaculty := make(map[string]slotSet)

	type semDayKey struct {
		semesterID string
		day        int
	}
	type facDayKey struct {
		facultyID string
		day       int
	}
	semesterDay := make(map[semDayKey]slotSet)
	facultyDay := make(map[facDayKey]slotSet)

	for _, g := range c.Genes {
		if !g.Placed() {
			b.H0 += weightH0
			continue
		}

		if g.IsLab {
			if g.PeriodsCount != LabPeriodsCount || g.EndPeriod() > PeriodsPerDay {
				b.H4 += weightH4
			}
			if g.StartPeriod == 2 || g.StartPeriod == 4 {
				b.S2 += weightS2
			}
		} else if g.EndPeriod() > TheoryMaxEndPeriod {
			b.H5 += weightH5
		}

		geneSet := geneSlotSet(g)

		if occSemester[g.SemesterID].intersects(geneSet) {
			b.H1 += weightH1
		}
		occSemester[g.SemesterID] = occSemester[g.SemesterID] | geneSet

		facultyCollision := false
		for _, fid := range g.FacultyIDs {
			if occFaculty[fid].intersects(geneSet) {
				facultyCollision = true
			}
			occFaculty[fid] = occFaculty[fid] | geneSet

			if e.blocked[fid].intersects(geneSet) {
				b.H3 += weightH3
			}
			// A faculty with no declared preferred windows has an empty
			// preferred set, so S1 fires on every placed gene for them.
			if !isSubset(geneSet, e.preferred[fid]) {
				b.S1 += weightS1
			}

			key := facDayKey{facultyID: fid, day: g.Day}
			facultyDay[key] = facultyDay[key] | geneSet
		}
		if facultyCollision {
			b.H2 += weightH2
		}

		key := semDayKey{semesterID: g.SemesterID, day: g.Day}
		semesterDay[key] = semesterDay[key] | geneSet
	}

	for _, set := range semesterDay {
		b.S3 += weightS3 * gapOf(set)
	}
	for _, set := range facultyDay {
		b.S4 += weightS4 * gapOf(set)
		if popcount(set) == 1 {
			b.S5 += weightS5
		}
	}

	return b
}

func isSubset(a, b slotSet) bool {
	return a&^b == 0
}

// gapOf computes span - total_hours for a day's occupied-period set: the
// spread between the first and last scheduled period minus how many
// distinct periods are actually used.
func gapOf(set slotSet) int {
	if set == 0 {
		return 0
	}
	min, max := -1, -1
	count := 0
	for p := 1; p <= PeriodsPerDay; p++ {
		hit := false
		for day := 1; day <= DaysPerWeek; day++ {
			if set.has(day, p) {
				hit = true
				break
			}
		}
		if hit {
			count++
			if min == -1 {
				min = p
			}
			max = p
		}
	}
	span := max - min + 1
	return span - count
}

func popcount(set slotSet) int {
	n := 0
	for set != 0 {
		set &= set - 1
		n++
	}
	return n
}
