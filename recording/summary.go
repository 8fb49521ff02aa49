// Package recording turns population grids into summary rows and writes
// them out.
package recording

import (
	"github.com/sarchlab/metapop/config"
	"github.com/sarchlab/metapop/population"
)

// Empty is the load reported for a population with no individuals.
const Empty = -1.0

// HostSummary describes one host at one point in time.
type HostSummary struct {
	Pop1 float64
	Pop2 float64
	K1   float64
	K2   float64
}

// A Row is one recorded point. Hosts[0] summarizes all hosts together;
// Hosts[h] describes host h.
type Row struct {
	Replicate  int
	Generation int
	Hosts      []HostSummary
}

// Total returns the all-host summary.
func (r Row) Total() HostSummary {
	return r.Hosts[0]
}

// Summarize computes the per-host and total summaries of g. The census must
// have been taken from g.
func Summarize(
	g *population.Grid,
	c *population.Census,
	stat config.LoadStat,
) []HostSummary {
	hosts := g.Hosts()
	out := make([]HostSummary, hosts+1)

	for h := 1; h <= hosts; h++ {
		out[h].Pop2 = c.Two(h)
		out[h].K2 = twoLoad(g, h, c.Two(h), stat)
		out[h].K1 = Empty

		if g.HasOneSegment() {
			out[h].Pop1 = c.One(h)
			out[h].K1 = oneLoad(g.One(h), c.One(h), stat)
		}
	}

	out[0] = HostSummary{
		Pop1: c.TotalOne(),
		Pop2: c.TotalTwo(),
		K1:   combine(out[1:], c.TotalOne(), stat, oneOf),
		K2:   combine(out[1:], c.TotalTwo(), stat, twoOf),
	}

	return out
}

func twoLoad(g *population.Grid, h int, n float64, stat config.LoadStat) float64 {
	if n <= 0 {
		return Empty
	}

	kmax := g.KMax()
	row := g.Two(h)

	if stat == config.LoadMin {
		best := Empty
		for idx, v := range row {
			j, k := population.TwoState(kmax, idx)
			load := float64(j + k)
			if v > 0 && (best == Empty || load < best) {
				best = load
			}
		}

		return best
	}

	mean := 0.0
	for idx, v := range row {
		j, k := population.TwoState(kmax, idx)
		mean += v / n * float64(j+k)
	}

	return mean
}

func oneLoad(row []float64, n float64, stat config.LoadStat) float64 {
	if n <= 0 {
		return Empty
	}

	if stat == config.LoadMin {
		for j, v := range row {
			if v > 0 {
				return float64(j)
			}
		}

		return Empty
	}

	mean := 0.0
	for j, v := range row {
		mean += v / n * float64(j)
	}

	return mean
}

type layer func(s HostSummary) (pop, load float64)

func oneOf(s HostSummary) (float64, float64) { return s.Pop1, s.K1 }
func twoOf(s HostSummary) (float64, float64) { return s.Pop2, s.K2 }

// combine folds per-host loads into the all-host load: a population
// weighted mean, or the smallest minimum.
func combine(
	hosts []HostSummary,
	total float64,
	stat config.LoadStat,
	pick layer,
) float64 {
	if total <= 0 {
		return Empty
	}

	if stat == config.LoadMin {
		best := Empty
		for _, s := range hosts {
			_, load := pick(s)
			if load != Empty && (best == Empty || load < best) {
				best = load
			}
		}

		return best
	}

	mean := 0.0
	for _, s := range hosts {
		pop, load := pick(s)
		if pop > 0 {
			mean += load * pop / total
		}
	}

	return mean
}
