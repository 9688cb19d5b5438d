package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformFloats returns n values drawn uniformly from [minVal, maxVal).
func (r *RNG) UniformFloats(n int, minVal, maxVal float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float64, n)
	span := maxVal - minVal
	for i := range out {
		out[i] = minVal + r.rand.Float64()*span
	}
	return out
}

// GaussianFloats returns n normally distributed values.
func (r *RNG) GaussianFloats(n int, mean, stddev float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float64, n)
	for i := range out {
		out[i] = mean + r.rand.NormFloat64()*stddev
	}
	return out
}

// DuplicateHeavy returns n values drawn from only distinct different values,
// so that most records have equal neighbours after sorting.
func (r *RNG) DuplicateHeavy(n, distinct int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if distinct <= 0 {
		distinct = 1
	}
	pool := make([]float64, distinct)
	for i := range pool {
		pool[i] = math.Round((r.rand.Float64()*2-1)*1e4) / 100
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = pool[r.rand.Intn(distinct)]
	}
	return out
}

// Edgy returns n values mixed from awkward IEEE 754 cases (signed zeros,
// infinities, subnormals, extremes) and ordinary numbers.
func (r *RNG) Edgy(n int) []float64 {
	specials := []float64{
		0, math.Copysign(0, -1), math.Inf(1), math.Inf(-1),
		math.MaxFloat64, -math.MaxFloat64, math.SmallestNonzeroFloat64,
		-math.SmallestNonzeroFloat64, 0.1, 1e-300, -1e300,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float64, n)
	for i := range out {
		if r.rand.Intn(3) == 0 {
			out[i] = specials[r.rand.Intn(len(specials))]
		} else {
			out[i] = (r.rand.Float64()*2 - 1) * math.Pow(10, float64(r.rand.Intn(40)-20))
		}
	}
	return out
}

// Shuffle returns a shuffled copy of values.
func (r *RNG) Shuffle(values []float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := slices.Clone(values)
	r.rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Sorted returns an ascending copy of values.
func Sorted(values []float64) []float64 {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}

// IsAscending reports whether values[i] <= values[i+1] for all i.
func IsAscending(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			return false
		}
	}
	return true
}
