package scheduler

// Gene is one required class session: an immutable template (semester,
// course, faculty, shape) plus a mutable assignment (day, start period).
// Genes hold only identifiers into the instance, never live references —
// labels are resolved at the presentation boundary from an instance
// snapshot, keeping the type trivially copyable.
type Gene struct {
	SemesterID   string
	CourseID     string
	FacultyIDs   []string
	PeriodsCount int
	IsLab        bool

	Day         int
	StartPeriod int
}

// EndPeriod is the last period this gene occupies given its current start.
func (g Gene) EndPeriod() int {
	return g.StartPeriod + g.PeriodsCount - 1
}

// Placed reports whether the gene has a non-null (day, start_period).
func (g Gene) Placed() bool {
	return g.Day != unplaced && g.StartPeriod != unplaced
}

// sameTemplate reports whether two genes share every immutable field,
// i.e. represent the same index of the same derivation.
func (g Gene) sameTemplate(other Gene) bool {
	if g.SemesterID != other.SemesterID || g.CourseID != other.CourseID ||
		g.PeriodsCount != other.PeriodsCount || g.IsLab != other.IsLab ||
		len(g.FacultyIDs) != len(other.FacultyIDs) {
		return false
	}
	for i := range g.FacultyIDs {
		if g.FacultyIDs[i] != other.FacultyIDs[i] {
			return false
		}
	}
	return true
}

func (g Gene) clone() Gene {
	ids := make([]string, len(g.FacultyIDs))
	copy(ids, g.FacultyIDs)
	g.FacultyIDs = ids
	return g
}

// Chromosome is an ordered sequence of genes forming one candidate weekly
// timetable. The sequence order is fixed at derivation time and shared by
// every chromosome in a run; it is the basis for one-point crossover
// alignment. Score caches the last evaluation so callers that only need
// the best-seen result don't have to re-score it.
type Chromosome struct {
	Genes []Gene
	Score int
}

// newChromosome builds an unplaced chromosome from the shared gene
// template, ready for initialization to fill in placements.
func newChromosome(template []Gene) Chromosome {
	genes := make([]Gene, len(template))
	for i, g := range template {
		genes[i] = g.clone()
		genes[i].Day = unplaced
		genes[i].StartPeriod = unplaced
	}
	return Chromosome{Genes: genes}
}

// Clone deep-copies a chromosome: callers may freely mutate the copy
// without aliasing the original's gene slice.
func (c Chromosome) Clone() Chromosome {
	genes := make([]Gene, len(c.Genes))
	for i, g := range c.Genes {
		genes[i] = g.clone()
	}
	return Chromosome{Genes: genes, Score: c.Score}
}

// MatchesTemplate reports whether the chromosome still matches a reference
// template: same length, same per-index immutable fields.
func (c Chromosome) MatchesTemplate(template []Gene) bool {
	if len(c.Genes) != len(template) {
		return false
	}
	for i, g := range c.Genes {
		if !g.sameTemplate(template[i]) {
			return false
		}
	}
	return true
}
