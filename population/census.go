package population

import (
	"fmt"
	"math"
)

// ConsistencyError reports a count that no valid generation can produce.
type ConsistencyError struct {
	Host     int
	Segments int
	State    int
	Value    float64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf(
		"population: host %d holds %v individuals in %d-segment state %d",
		e.Host, e.Value, e.Segments, e.State)
}

// A Census keeps the population size of every host, split by segment count.
type Census struct {
	hosts int

	// Index 0 holds the sum over hosts.
	one []float64
	two []float64
}

// NewCensus creates an empty census for the given number of hosts.
func NewCensus(hosts int) *Census {
	return &Census{
		hosts: hosts,
		one:   make([]float64, hosts+1),
		two:   make([]float64, hosts+1),
	}
}

// Count recomputes the census from g. The pool is not counted. It fails on
// the first negative or NaN count.
func (c *Census) Count(g *Grid) error {
	if g.Hosts() != c.hosts {
		panic("population: census and grid disagree on host count")
	}

	c.one[0], c.two[0] = 0, 0

	for h := 1; h <= c.hosts; h++ {
		n, err := sumRow(h, 2, g.two[h])
		if err != nil {
			return err
		}

		c.two[h] = n
		c.two[0] += n

		if g.one == nil {
			c.one[h] = 0
			continue
		}

		n, err = sumRow(h, 1, g.one[h])
		if err != nil {
			return err
		}

		c.one[h] = n
		c.one[0] += n
	}

	return nil
}

func sumRow(h, segments int, row []float64) (float64, error) {
	sum := 0.0

	for s, v := range row {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &ConsistencyError{
				Host:     h,
				Segments: segments,
				State:    s,
				Value:    v,
			}
		}

		sum += v
	}

	return sum, nil
}

// Hosts returns the number of hosts tracked.
func (c *Census) Hosts() int {
	return c.hosts
}

// Two returns the two-segment population of host h.
func (c *Census) Two(h int) float64 {
	c.hostMustBeReal(h)
	return c.two[h]
}

// One returns the one-segment population of host h.
func (c *Census) One(h int) float64 {
	c.hostMustBeReal(h)
	return c.one[h]
}

// Host returns the whole population of host h.
func (c *Census) Host(h int) float64 {
	return c.One(h) + c.Two(h)
}

// TotalTwo returns the two-segment population over all hosts.
func (c *Census) TotalTwo() float64 {
	return c.two[0]
}

// TotalOne returns the one-segment population over all hosts.
func (c *Census) TotalOne() float64 {
	return c.one[0]
}

// Total returns the population over all hosts and both layers.
func (c *Census) Total() float64 {
	return c.one[0] + c.two[0]
}

// CopyFrom overwrites c with the values of o.
func (c *Census) CopyFrom(o *Census) {
	copy(c.one, o.one)
	copy(c.two, o.two)
}

func (c *Census) hostMustBeReal(h int) {
	if h < 1 || h > c.hosts {
		panic(fmt.Sprintf("population: host %d outside 1..%d", h, c.hosts))
	}
}
