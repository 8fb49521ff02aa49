package pipeline

import "github.com/sarchlab/metapop/population"

// Migrate moves a fraction of every host into the shared pool and then lets
// each host draw immigrants from it.
type Migrate struct {
	mig float64
	tr  float64
}

// NewMigrate creates a Migrate stage. mig is the emigrating fraction and tr
// scales the number of immigrants each host receives.
func NewMigrate(mig, tr float64) *Migrate {
	return &Migrate{mig: mig, tr: tr}
}

// Name returns "migrate".
func (m *Migrate) Name() string {
	return "migrate"
}

// Apply runs emigration for all hosts before any immigration, so that every
// host draws from the same pool.
func (m *Migrate) Apply(st *State) error {
	cur, next := st.Current, st.Next
	hosts := cur.Hosts()
	withOne := cur.HasOneSegment()

	for h := 1; h <= hosts; h++ {
		m.emigrate(next.Two(population.Pool), next.Two(h), cur.Two(h))

		if withOne {
			m.emigrate(next.One(population.Pool), next.One(h), cur.One(h))
		}
	}

	for h := 1; h <= hosts; h++ {
		m.immigrate(st, next.Two(h), next.Two(population.Pool), hosts)

		if withOne {
			m.immigrate(st, next.One(h), next.One(population.Pool), hosts)
		}
	}

	next.ClearPool()

	return nil
}

func (m *Migrate) emigrate(pool, dst, src []float64) {
	for s, v := range src {
		leaving := v * m.mig
		dst[s] = v - leaving
		pool[s] += leaving
	}
}

func (m *Migrate) immigrate(st *State, dst, pool []float64, hosts int) {
	for s, v := range pool {
		dst[s] += st.RNG.Poisson(v / float64(hosts) * m.tr)
	}
}
