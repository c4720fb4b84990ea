package montecarlo

import (
	"context"
	"fmt"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/resolve"
	"github.com/danielpatrickdp/quiz-calibrator/internal/score"
)

// PartitionSeedOffset separates the seeds of partitioned sampling chunks.
const PartitionSeedOffset = 1_000_003

// cancellation is polled once per this many samples.
const pollEvery = 1024

// NewRand returns the deterministic generator used for every draw.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x5851f42d4c957f2d))
}

// #region distribution
// Distribution is an outcome histogram over results in declaration order.
type Distribution struct {
	Order  []string
	Counts map[string]int
	Total  int
}

// NewDistribution builds a histogram from per-result counts.
func NewDistribution(ids []string, counts []int) Distribution {
	d := Distribution{Order: ids, Counts: make(map[string]int, len(ids))}
	for i, id := range ids {
		d.Counts[id] = counts[i]
		d.Total += counts[i]
	}
	return d
}

// Percent is count/total*100, or 0 for an empty run.
func (d Distribution) Percent(id string) float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Counts[id]) / float64(d.Total) * 100
}

// Unseen lists results that were never selected, in declaration order.
func (d Distribution) Unseen() []string {
	var out []string
	for _, id := range d.Order {
		if d.Counts[id] == 0 {
			out = append(out, id)
		}
	}
	return out
}

// #endregion distribution

// #region partition
// Chunk is a half-open index range [Start, End).
type Chunk struct {
	Start, End int
}

// Len is End-Start.
func (c Chunk) Len() int { return c.End - c.Start }

// SplitEven cuts total items into at most chunks contiguous ranges whose sizes
// differ by at most one. Empty ranges are dropped.
func SplitEven(total, chunks int) []Chunk {
	if chunks <= 0 {
		return nil
	}
	base, rem := total/chunks, total%chunks
	out := make([]Chunk, 0, chunks)
	start := 0
	for i := 0; i < chunks; i++ {
		size := base
		if i < rem {
			size++
		}
		if size > 0 {
			out = append(out, Chunk{start, start + size})
		}
		start += size
	}
	return out
}

// #endregion partition

// #region draw
// DrawPaths draws n answer paths, one uniform option index per question.
func DrawPaths(optionCounts []int, n int, seed int64) [][]int {
	rng := NewRand(seed)
	paths := make([][]int, n)
	flat := make([]int, n*len(optionCounts))
	for i := range paths {
		paths[i] = flat[i*len(optionCounts) : (i+1)*len(optionCounts) : (i+1)*len(optionCounts)]
		drawInto(rng, optionCounts, paths[i])
	}
	return paths
}

func drawInto(rng *rand.Rand, optionCounts []int, path []int) {
	for q, n := range optionCounts {
		path[q] = rng.IntN(n)
	}
}

// #endregion draw

// #region sample
// Sample draws n paths with seed and tallies their winners. With workers > 1
// the run is split by SplitEven and chunk i is seeded seed+i*PartitionSeedOffset,
// so it is reproducible but differs from the single-stream run.
func Sample(ctx context.Context, q *quiz.Questionnaire, n int, seed int64, workers int) (Distribution, error) {
	r, err := resolve.New(q)
	if err != nil {
		return Distribution{}, err
	}
	m := q.Matrix()
	optionCounts := q.OptionCounts()

	if workers <= 1 {
		counts, err := sampleStream(ctx, r, m, optionCounts, n, seed)
		if err != nil {
			return Distribution{}, err
		}
		return NewDistribution(r.IDs(), counts), nil
	}

	chunks := SplitEven(n, workers)
	partials := make([][]int, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			counts, err := sampleStream(gctx, r, m, optionCounts, c.Len(), seed+int64(i)*PartitionSeedOffset)
			if err != nil {
				return fmt.Errorf("sample chunk %d: %w", i, err)
			}
			partials[i] = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Distribution{}, err
	}
	return NewDistribution(r.IDs(), merge(r.Len(), partials)), nil
}

func sampleStream(ctx context.Context, r *resolve.Resolver, m score.Matrix, optionCounts []int, n int, seed int64) ([]int, error) {
	rng := NewRand(seed)
	counts := make([]int, r.Len())
	path := make([]int, len(optionCounts))
	var p score.Profile
	for s := 0; s < n; s++ {
		if s%pollEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		drawInto(rng, optionCounts, path)
		m.ProfileInto(&p, path)
		win, err := r.Resolve(&p)
		if err != nil {
			return nil, err
		}
		counts[win]++
	}
	return counts, nil
}

// #endregion sample

// #region tally
// Tally resolves a fixed path set. The counts do not depend on workers.
func Tally(ctx context.Context, q *quiz.Questionnaire, paths [][]int, workers int) (Distribution, error) {
	r, err := resolve.New(q)
	if err != nil {
		return Distribution{}, err
	}
	counts, err := TallyWith(ctx, r, q.Matrix(), paths, workers)
	if err != nil {
		return Distribution{}, err
	}
	return NewDistribution(r.IDs(), counts), nil
}

// TallyWith is Tally over an already compiled resolver and weight matrix.
// It returns per-result counts in declaration order.
func TallyWith(ctx context.Context, r *resolve.Resolver, m score.Matrix, paths [][]int, workers int) ([]int, error) {
	if workers <= 1 {
		return tallyRange(ctx, r, m, paths)
	}
	chunks := SplitEven(len(paths), workers)
	partials := make([][]int, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			counts, err := tallyRange(gctx, r, m, paths[c.Start:c.End])
			if err != nil {
				return err
			}
			partials[i] = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merge(r.Len(), partials), nil
}

func tallyRange(ctx context.Context, r *resolve.Resolver, m score.Matrix, paths [][]int) ([]int, error) {
	counts := make([]int, r.Len())
	var p score.Profile
	for s, path := range paths {
		if s%pollEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		m.ProfileInto(&p, path)
		win, err := r.Resolve(&p)
		if err != nil {
			return nil, err
		}
		counts[win]++
	}
	return counts, nil
}

// #endregion tally

func merge(n int, partials [][]int) []int {
	out := make([]int, n)
	for _, part := range partials {
		for i, c := range part {
			out[i] += c
		}
	}
	return out
}
