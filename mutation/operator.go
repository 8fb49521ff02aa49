// Package mutation builds the per-generation mutation operator and applies
// it to population rows.
//
// The number of new mutations per generation is Poisson with mean 2u. For
// the two-segment layer, l new mutations are spread over the two segments by
// choosing a split l = l2 + l3 uniformly among the splits that keep both
// segments within kmax. The one-segment layer simply moves mass from j to
// j+l.
package mutation

import (
	"fmt"

	"github.com/sarchlab/metapop/population"
	"github.com/sarchlab/metapop/rng"
	"gonum.org/v1/gonum/mat"
)

// An Operator holds the tables derived from (kmax, u, limit). It is built once
// per run and shared by all replicates.
type Operator struct {
	kmax  int
	u     float64
	limit int

	pmf        []float64
	cumulative []float64

	stay   []float64
	matrix *mat.Dense
	work   *mat.VecDense
}

// NewOperator builds the operator. A non-positive limit, or one larger than
// 2*kmax, means that the number of new mutations per generation is only
// bounded by the remaining room.
func NewOperator(kmax int, u float64, limit int) *Operator {
	if kmax <= 0 {
		panic(fmt.Sprintf("mutation: kmax must be positive, got %d", kmax))
	}

	top := 2 * kmax
	if limit <= 0 || limit > top {
		limit = top
	}

	o := &Operator{
		kmax:  kmax,
		u:     u,
		limit: limit,
	}

	o.buildTables()
	o.buildMatrix()

	return o
}

func (o *Operator) buildTables() {
	top := 2 * o.kmax

	o.pmf = make([]float64, top+1)
	o.cumulative = make([]float64, top+1)

	for i := 0; i <= top; i++ {
		o.pmf[i] = rng.PoissonPMF(2*o.u, i)
	}

	for i := 1; i <= top; i++ {
		o.cumulative[i] = o.cumulative[i-1] + o.pmf[i]
	}
}

func (o *Operator) buildMatrix() {
	n := population.TwoStates(o.kmax)

	o.stay = make([]float64, n)
	o.matrix = mat.NewDense(n, n, nil)
	o.work = mat.NewVecDense(n, nil)

	for j := 0; j <= o.kmax; j++ {
		for k := 0; k <= o.kmax; k++ {
			src := population.TwoIndex(o.kmax, j, k)
			reach := o.Reach(2*o.kmax - j - k)

			o.stay[src] = 1 - o.cumulative[reach]

			for l := 1; l <= reach; l++ {
				w := o.pmf[l] / float64(splitCount(o.kmax, j, k, l))

				for l2 := 0; l2 <= l; l2++ {
					l3 := l - l2
					if j+l2 > o.kmax || k+l3 > o.kmax {
						continue
					}

					dst := population.TwoIndex(o.kmax, j+l2, k+l3)
					o.matrix.Set(src, dst, o.matrix.At(src, dst)+w)
				}
			}
		}
	}
}

// splitCount is the number of splits of l new mutations that keep a
// (j, k) individual inside the state space.
func splitCount(kmax, j, k, l int) int {
	switch {
	case l <= kmax-k && l <= kmax-j:
		return l + 1
	case l <= kmax-k || l <= kmax-j:
		return kmax - max(j, k) + 1
	default:
		return 2*kmax - k - j - l + 1
	}
}

// KMax returns the per-segment mutation ceiling.
func (o *Operator) KMax() int {
	return o.kmax
}

// Cap returns the effective bound on new mutations per generation.
func (o *Operator) Cap() int {
	return o.limit
}

// Reach returns how many new mutations an individual with the given room
// can acquire in one generation.
func (o *Operator) Reach(left int) int {
	if left < o.limit {
		return left
	}

	return o.limit
}

// PMF returns the probability of exactly l new mutations.
func (o *Operator) PMF(l int) float64 {
	return o.pmf[l]
}

// Cumulative returns the probability of between 1 and i new mutations.
func (o *Operator) Cumulative(i int) float64 {
	return o.cumulative[i]
}

// Stay returns the fraction of (j, k) that acquires no new mutation.
func (o *Operator) Stay(j, k int) float64 {
	return o.stay[population.TwoIndex(o.kmax, j, k)]
}

// Weight returns the fraction of (j, k) that moves to (j2, k2).
func (o *Operator) Weight(j, k, j2, k2 int) float64 {
	return o.matrix.At(
		population.TwoIndex(o.kmax, j, k),
		population.TwoIndex(o.kmax, j2, k2),
	)
}

// Matrix exposes the transition matrix, rows indexed by source state.
func (o *Operator) Matrix() mat.Matrix {
	return o.matrix
}

// MutateTwo writes the mutated two-segment row src into dst. The rows must
// not overlap.
func (o *Operator) MutateTwo(dst, src []float64) {
	n := len(o.stay)
	if len(dst) != n || len(src) != n {
		panic(fmt.Sprintf("mutation: row length %d/%d, want %d",
			len(dst), len(src), n))
	}

	o.work.MulVec(o.matrix.T(), mat.NewVecDense(n, src))

	for i := range dst {
		dst[i] = src[i]*o.stay[i] + o.work.AtVec(i)
	}
}

// MutateOne adds the mutated one-segment row src into dst, which is
// expected to start at zero.
func (o *Operator) MutateOne(dst, src []float64) {
	top := 2 * o.kmax
	if len(dst) != top+1 || len(src) != top+1 {
		panic(fmt.Sprintf("mutation: row length %d/%d, want %d",
			len(dst), len(src), top+1))
	}

	for j := 0; j <= top; j++ {
		dst[j] += src[j]

		reach := o.Reach(top - j)
		for l := 1; l <= reach; l++ {
			f := o.pmf[l] * src[j]
			dst[j] -= f
			dst[j+l] += f
		}
	}
}
