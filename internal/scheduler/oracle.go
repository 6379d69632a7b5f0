package scheduler

import "math/rand"

// Oracle proposes valid (day, start_period) placements for a single gene,
// either uniformly at random within its type-specific bounds, or greedily
// into a slot that collides with nothing given a partial chromosome.
type Oracle struct {
	blocked map[string]slotSet
}

// NewOracle preprocesses an instance's blocked preference windows once;
// the returned Oracle may be reused across an entire search.
func NewOracle(instance Instance) *Oracle {
	o := &Oracle{blocked: make(map[string]slotSet)}
	for _, pref := range instance.Preferences {
		if pref.Kind != PreferenceBlocked {
			continue
		}
		set := o.blocked[pref.FacultyID]
		for p := pref.PeriodStart; p <= pref.PeriodEnd && p <= PeriodsPerDay; p++ {
			if p < 1 {
				continue
			}
			set = set.with(pref.Day, p)
		}
		o.blocked[pref.FacultyID] = set
	}
	return o
}

// startRange returns the inclusive [min, max] start_period bound for a
// gene's type, per the type-appropriate placement window.
func startRange(periodsCount int, isLab bool) (min, max int, err error) {
	if isLab {
		if periodsCount > PeriodsPerDay {
			return 0, 0, ErrInvalidInstance
		}
		return 1, PeriodsPerDay - periodsCount + 1, nil
	}
	if periodsCount > TheoryMaxEndPeriod {
		return 0, 0, ErrInvalidInstance
	}
	return 1, TheoryMaxEndPeriod - periodsCount + 1, nil
}

// RandomTimeslot chooses a day uniformly and a start period uniformly from
// the type-appropriate range.
func (o *Oracle) RandomTimeslot(rng *rand.Rand, periodsCount int, isLab bool) (day, start int, err error) {
	min, max, err := startRange(periodsCount, isLab)
	if err != nil {
		return 0, 0, err
	}
	day = 1 + rng.Intn(DaysPerWeek)
	start = min + rng.Intn(max-min+1)
	return day, start, nil
}

// FindEmptySlot enumerates every candidate (day, start_period) honoring the
// gene's type bound, filters out candidates that collide with any other
// gene's occupied periods in the same semester or with any of the gene's
// faculties, and filters those overlapping the gene's faculties' blocked
// sets. It returns one surviving candidate chosen uniformly at random, or
// ok=false if none exist. idx identifies the gene being re-placed within c
// so it is excluded from the occupancy it is compared against.
func (o *Oracle) FindEmptySlot(rng *rand.Rand, idx int, c Chromosome) (day, start int, ok bool) {
	gene := c.Genes[idx]
	min, max, err := startRange(gene.PeriodsCount, gene.IsLab)
	if err != nil {
		return 0, 0, false
	}

	var occSemester, occFaculty slotSet
	facultySet := make(map[string]bool, len(gene.FacultyIDs))
	for _, fid := range gene.FacultyIDs {
		facultySet[fid] = true
	}
	for i, other := range c.Genes {
		if i == idx {
			continue
		}
		if !other.Placed() {
			continue
		}
		otherSet := geneSlotSet(other)
		if other.SemesterID == gene.SemesterID {
			occSemester |= otherSet
		}
		for _, fid := range other.FacultyIDs {
			if facultySet[fid] {
				occFaculty |= otherSet
			}
		}
	}

	var blockedSet slotSet
	for _, fid := range gene.FacultyIDs {
		blockedSet |= o.blocked[fid]
	}

	type candidate struct{ day, start int }
	var candidates []candidate

	for d := 1; d <= DaysPerWeek; d++ {
		for s := min; s <= max; s++ {
			probe := Gene{Day: d, StartPeriod: s, PeriodsCount: gene.PeriodsCount}
			probeSet := geneSlotSet(probe)
			if probeSet.intersects(occSemester) || probeSet.intersects(occFaculty) || probeSet.intersects(blockedSet) {
				continue
			}
			candidates = append(candidates, candidate{day: d, start: s})
		}
	}

	if len(candidates) == 0 {
		return 0, 0, false
	}
	pick := candidates[rng.Intn(len(candidates))]
	return pick.day, pick.start, true
}
