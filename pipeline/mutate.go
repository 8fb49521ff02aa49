package pipeline

import "github.com/sarchlab/metapop/mutation"

// Mutate spreads new mutations through every populated host.
type Mutate struct {
	op *mutation.Operator
}

// NewMutate creates a Mutate stage that applies op.
func NewMutate(op *mutation.Operator) *Mutate {
	return &Mutate{op: op}
}

// Name returns "mutate".
func (m *Mutate) Name() string {
	return "mutate"
}

// Apply mutates the two-segment and, when present, one-segment layers.
func (m *Mutate) Apply(st *State) error {
	cur, next := st.Current, st.Next

	for h := 1; h <= cur.Hosts(); h++ {
		if st.Census.Two(h) > 0 {
			m.op.MutateTwo(next.Two(h), cur.Two(h))
		}

		if cur.HasOneSegment() && st.Census.One(h) > 0 {
			m.op.MutateOne(next.One(h), cur.One(h))
		}
	}

	return nil
}
