package pipeline

import (
	"gonum.org/v1/gonum/floats"

	"github.com/sarchlab/metapop/population"
)

// Reassort mixes segments between two-segment individuals of the same host.
// A fraction r of each host is redrawn from the product of its two segment
// marginals. One-segment individuals are carried over unchanged.
type Reassort struct {
	r float64

	jp, kp []float64
}

// NewReassort creates a Reassort stage with rate r.
func NewReassort(r float64) *Reassort {
	return &Reassort{r: r}
}

// Name returns "reassort".
func (s *Reassort) Name() string {
	return "reassort"
}

// Apply reassorts every populated host.
func (s *Reassort) Apply(st *State) error {
	cur, next := st.Current, st.Next
	kmax := cur.KMax()

	if len(s.jp) != kmax+1 {
		s.jp = make([]float64, kmax+1)
		s.kp = make([]float64, kmax+1)
	}

	for h := 1; h <= cur.Hosts(); h++ {
		if cur.HasOneSegment() {
			copy(next.One(h), cur.One(h))
		}

		src := cur.Two(h)
		n := floats.Sum(src)
		if n <= 0 {
			continue
		}

		s.marginals(kmax, src, n)

		dst := next.Two(h)
		for idx, v := range src {
			j, k := population.TwoState(kmax, idx)
			dst[idx] = v*(1-s.r) + n*s.jp[j]*s.kp[k]*s.r
		}
	}

	return nil
}

func (s *Reassort) marginals(kmax int, src []float64, n float64) {
	for i := range s.jp {
		s.jp[i] = 0
		s.kp[i] = 0
	}

	for idx, v := range src {
		j, k := population.TwoState(kmax, idx)
		s.jp[j] += v
		s.kp[k] += v
	}

	floats.Scale(1/n, s.jp)
	floats.Scale(1/n, s.kp)
}
