package scheduler

import (
	"context"
	"math/rand"
)

// ProgressFunc is invoked synchronously once per generation with the
// current generation index (0-based), the configured total, and the
// best-seen score so far. It must not retain the chromosome.
type ProgressFunc func(generation, totalGenerations, bestScore int)

// GAConfig enumerates every tunable of the search. Zero-value fields are
// replaced with documented defaults by Run.
type GAConfig struct {
	PopulationSize      int
	Generations         int
	CrossoverRate       float64
	MutationRate        float64
	MutationChanceSmart float64
	TournamentSize      int
	Seed                int64

	// AcceptanceThreshold, if non-nil, makes Run return ErrDegenerateSearch
	// (alongside the best-seen chromosome) when the final best score is
	// still below it. Nil preserves the default: never error, always
	// return best-seen.
	AcceptanceThreshold *int

	Progress ProgressFunc
}

// DefaultGAConfig returns the tuned defaults.
func DefaultGAConfig() GAConfig {
	return GAConfig{
		PopulationSize:      100,
		Generations:         500,
		CrossoverRate:       0.8,
		MutationRate:        0.05,
		MutationChanceSmart: 0.8,
		TournamentSize:      5,
	}
}

func (c GAConfig) withDefaults() GAConfig {
	d := DefaultGAConfig()
	if c.PopulationSize <= 0 {
		c.PopulationSize = d.PopulationSize
	}
	if c.Generations <= 0 {
		c.Generations = d.Generations
	}
	if c.CrossoverRate == 0 {
		c.CrossoverRate = d.CrossoverRate
	}
	if c.MutationRate == 0 {
		c.MutationRate = d.MutationRate
	}
	if c.MutationChanceSmart == 0 {
		c.MutationChanceSmart = d.MutationChanceSmart
	}
	if c.TournamentSize <= 0 {
		c.TournamentSize = d.TournamentSize
	}
	return c
}

// Run executes the genetic search over templates within instance and
// returns the best-seen chromosome. It raises ErrInvalidInstance
// synchronously, before any state is mutated, if the instance is empty or
// under-specified. ctx is checked at generation boundaries; on
// cancellation the current best-seen chromosome is returned without error.
//
// Given the same seed, instance, and config the search trajectory is fully
// reproducible. Random draws happen in a fixed order: population
// initialization first, then per generation: tournament selection, the
// parent shuffle, and per pair the crossover decision and cut point
// followed by each child's smart-mode draw and per-gene mutation decisions
// and placements.
func Run(ctx context.Context, templates []Gene, instance Instance, cfg GAConfig) (Chromosome, error) {
	if len(templates) == 0 || len(instance.Semesters) == 0 || len(instance.Faculty) == 0 {
		return Chromosome{}, ErrInvalidInstance
	}
	for _, g := range templates {
		if _, _, err := startRange(g.PeriodsCount, g.IsLab); err != nil {
			return Chromosome{}, ErrInvalidInstance
		}
	}

	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))
	evaluator := NewEvaluator(instance)
	oracle := NewOracle(instance)

	population := initPopulation(rng, templates, cfg.PopulationSize, oracle, evaluator)

	best := bestOf(population)
	best = best.Clone()

	cancelled := false
	for gen := 0; gen < cfg.Generations; gen++ {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		parents := selectTournament(rng, population, cfg.TournamentSize)
		rng.Shuffle(len(parents), func(i, j int) { parents[i], parents[j] = parents[j], parents[i] })

		next := make([]Chromosome, 0, cfg.PopulationSize)
		for i := 0; i < len(parents) && len(next) < cfg.PopulationSize; i += 2 {
			p1 := parents[i]
			var p2 Chromosome
			switch {
			case i+1 < len(parents):
				p2 = parents[i+1]
			case i > 0:
				p2 = parents[rng.Intn(i)]
			default:
				p2 = p1
			}

			c1, c2 := p1.Clone(), p2.Clone()
			if rng.Float64() < cfg.CrossoverRate && len(c1.Genes) > 1 {
				k := 1 + rng.Intn(len(c1.Genes)-1)
				onePointCrossover(&c1, &c2, k)
			}

			mutate(rng, &c1, cfg, oracle)
			mutate(rng, &c2, cfg, oracle)

			c1.Score = evaluator.Score(c1)
			c2.Score = evaluator.Score(c2)

			next = append(next, c1, c2)
		}
		if len(next) > cfg.PopulationSize {
			next = next[:cfg.PopulationSize]
		}
		population = next

		genBest := bestOf(population)
		if genBest.Score > best.Score {
			best = genBest.Clone()
		}

		if cfg.Progress != nil {
			cfg.Progress(gen, cfg.Generations, best.Score)
		}

		if best.Score == 0 {
			break
		}
	}

	if !cancelled && cfg.AcceptanceThreshold != nil && best.Score < *cfg.AcceptanceThreshold {
		return best, ErrDegenerateSearch
	}
	return best, nil
}

func initPopulation(rng *rand.Rand, templates []Gene, size int, oracle *Oracle, evaluator *Evaluator) []Chromosome {
	population := make([]Chromosome, size)
	for i := 0; i < size; i++ {
		c := newChromosome(templates)
		for g := range c.Genes {
			day, start, err := oracle.RandomTimeslot(rng, c.Genes[g].PeriodsCount, c.Genes[g].IsLab)
			if err != nil {
				continue
			}
			c.Genes[g].Day = day
			c.Genes[g].StartPeriod = start
		}
		c.Score = evaluator.Score(c)
		population[i] = c
	}
	return population
}

func bestOf(population []Chromosome) Chromosome {
	best := population[0]
	for _, c := range population[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best
}

// selectTournament produces len(population) parents: for each, sample
// tournamentSize chromosomes uniformly with replacement and take the one
// with the highest score. Ties keep whichever was sampled first.
func selectTournament(rng *rand.Rand, population []Chromosome, tournamentSize int) []Chromosome {
	parents := make([]Chromosome, len(population))
	for i := range parents {
		var winner Chromosome
		for t := 0; t < tournamentSize; t++ {
			candidate := population[rng.Intn(len(population))]
			if t == 0 || candidate.Score > winner.Score {
				winner = candidate
			}
		}
		parents[i] = winner.Clone()
	}
	return parents
}

// onePointCrossover swaps the (day, start_period) fields of c1 and c2 for
// every gene index in [k, len). All other gene fields are identical across
// chromosomes at the same index, so only placement moves; a theory gene can
// never inherit a lab gene's slot or vice versa.
func onePointCrossover(c1, c2 *Chromosome, k int) {
	for i := k; i < len(c1.Genes); i++ {
		c1.Genes[i].Day, c2.Genes[i].Day = c2.Genes[i].Day, c1.Genes[i].Day
		c1.Genes[i].StartPeriod, c2.Genes[i].StartPeriod = c2.Genes[i].StartPeriod, c1.Genes[i].StartPeriod
	}
}

// mutate draws the chromosome's smart/non-smart mode once, then for each
// gene independently draws a mutation decision and, if triggered, a
// replacement placement.
func mutate(rng *rand.Rand, c *Chromosome, cfg GAConfig, oracle *Oracle) {
	smart := rng.Float64() < cfg.MutationChanceSmart

	for i := range c.Genes {
		if rng.Float64() >= cfg.MutationRate {
			continue
		}

		if smart {
			if day, start, ok := oracle.FindEmptySlot(rng, i, *c); ok {
				c.Genes[i].Day = day
				c.Genes[i].StartPeriod = start
				continue
			}
		}

		day, start, err := oracle.RandomTimeslot(rng, c.Genes[i].PeriodsCount, c.Genes[i].IsLab)
		if err != nil {
			continue
		}
		c.Genes[i].Day = day
		c.Genes[i].StartPeriod = start
	}
}
