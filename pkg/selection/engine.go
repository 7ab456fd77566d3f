package selection

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Engine draws students and groups from a random source.
// It holds no roster state; callers pass the population on every draw.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an engine over src
func New(src rand.Source) *Engine {
	return &Engine{rng: rand.New(src)}
}

// NewSeeded creates an engine whose draws are reproducible for seed
func NewSeeded(seed uint64) *Engine {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewDefault creates an engine seeded once for this process
func NewDefault() *Engine {
	now := uint64(time.Now().UnixNano())
	return New(rand.NewPCG(now, rand.Uint64()))
}

// PickPerson returns one element of population, chosen with probability
// proportional to the weight at the same position. It reports false for an
// empty population, mismatched lengths or a total weight that is not positive.
func (e *Engine) PickPerson(population []int, weights []float64) (int, bool) {
	pos, ok := e.pickPosition(weights, len(population))
	if !ok {
		return 0, false
	}
	return population[pos], true
}

// PickGroup returns a uniformly chosen index in [0, groupCount)
func (e *Engine) PickGroup(groupCount int) (int, bool) {
	if groupCount < 1 {
		return 0, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.IntN(groupCount), true
}

// PickMany draws up to k distinct elements of population without
// replacement, each draw weighted like PickPerson. Fewer than k elements
// are returned when the population runs out of selectable entries.
func (e *Engine) PickMany(population []int, weights []float64, k int) []int {
	if k < 1 || len(population) != len(weights) {
		return nil
	}

	pool := append([]int(nil), population...)
	w := append([]float64(nil), weights...)
	picked := make([]int, 0, min(k, len(pool)))

	for len(picked) < k {
		pos, ok := e.pickPosition(w, len(pool))
		if !ok {
			break
		}
		picked = append(picked, pool[pos])
		pool = append(pool[:pos], pool[pos+1:]...)
		w = append(w[:pos], w[pos+1:]...)
	}
	return picked
}

// pickPosition draws a position in weights. Negative and NaN weights count
// as zero. Weights are scaled by the largest one so the running total cannot
// overflow. When some weights are +Inf, only those positions are drawn, each
// with equal probability.
func (e *Engine) pickPosition(weights []float64, n int) (int, bool) {
	if n == 0 || len(weights) != n {
		return 0, false
	}

	var largest float64
	var infinite []int
	for i, w := range weights {
		switch {
		case math.IsInf(w, 1):
			infinite = append(infinite, i)
		case w > largest:
			largest = w
		}
	}

	if len(infinite) > 0 {
		e.mu.Lock()
		pos := infinite[e.rng.IntN(len(infinite))]
		e.mu.Unlock()
		return pos, true
	}
	if largest <= 0 {
		return 0, false
	}

	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w / largest
		}
	}

	e.mu.Lock()
	r := e.rng.Float64() * total
	e.mu.Unlock()

	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		scaled := w / largest
		if r < scaled {
			return i, true
		}
		r -= scaled
		last = i
	}

	// Rounding left r just past the final bucket
	return last, true
}
