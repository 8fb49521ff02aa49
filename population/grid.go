// Package population holds the per-host mutation-class counts of a run and
// the double buffer that the generation stages read from and write to.
package population

import "fmt"

// Pool is the host index of the migration pool.
const Pool = 0

// TwoStates returns the number of two-segment mutation states for kmax.
func TwoStates(kmax int) int {
	return (kmax + 1) * (kmax + 1)
}

// OneStates returns the number of one-segment mutation states for kmax.
func OneStates(kmax int) int {
	return 2*kmax + 1
}

// TwoIndex linearizes the two-segment state (j, k).
func TwoIndex(kmax, j, k int) int {
	return j*(kmax+1) + k
}

// TwoState is the inverse of TwoIndex.
func TwoState(kmax, idx int) (j, k int) {
	return idx / (kmax + 1), idx % (kmax + 1)
}

// A Grid stores counts for every host and mutation state. Host 0 is the
// migration pool; real hosts are numbered from 1.
type Grid struct {
	kmax  int
	hosts int

	two [][]float64
	one [][]float64
}

// NewGrid allocates a zeroed grid. The one-segment layer is only allocated
// when withOne is set.
func NewGrid(hosts, kmax int, withOne bool) *Grid {
	if hosts <= 0 || kmax <= 0 {
		panic(fmt.Sprintf("population: invalid grid shape hosts=%d kmax=%d",
			hosts, kmax))
	}

	g := &Grid{
		kmax:  kmax,
		hosts: hosts,
		two:   make([][]float64, hosts+1),
	}

	for h := range g.two {
		g.two[h] = make([]float64, TwoStates(kmax))
	}

	if withOne {
		g.one = make([][]float64, hosts+1)
		for h := range g.one {
			g.one[h] = make([]float64, OneStates(kmax))
		}
	}

	return g
}

// KMax returns the per-segment mutation ceiling.
func (g *Grid) KMax() int {
	return g.kmax
}

// Hosts returns the number of real hosts, excluding the pool.
func (g *Grid) Hosts() int {
	return g.hosts
}

// HasOneSegment tells whether the one-segment layer exists.
func (g *Grid) HasOneSegment() bool {
	return g.one != nil
}

// Two returns the two-segment row of host h. The row aliases the grid.
func (g *Grid) Two(h int) []float64 {
	g.hostMustBeValid(h)
	return g.two[h]
}

// One returns the one-segment row of host h. The row aliases the grid.
func (g *Grid) One(h int) []float64 {
	g.hostMustBeValid(h)
	g.oneMustExist()

	return g.one[h]
}

// At returns the count of host h in two-segment state (j, k).
func (g *Grid) At(h, j, k int) float64 {
	return g.two[h][g.index(h, j, k)]
}

// Set overwrites the count of host h in two-segment state (j, k).
func (g *Grid) Set(h, j, k int, v float64) {
	g.two[h][g.index(h, j, k)] = v
}

// Add increases the count of host h in two-segment state (j, k).
func (g *Grid) Add(h, j, k int, v float64) {
	g.two[h][g.index(h, j, k)] += v
}

// OneAt returns the count of host h in one-segment state j.
func (g *Grid) OneAt(h, j int) float64 {
	return g.one[h][g.oneIndex(h, j)]
}

// SetOne overwrites the count of host h in one-segment state j.
func (g *Grid) SetOne(h, j int, v float64) {
	g.one[h][g.oneIndex(h, j)] = v
}

// AddOne increases the count of host h in one-segment state j.
func (g *Grid) AddOne(h, j int, v float64) {
	g.one[h][g.oneIndex(h, j)] += v
}

// Clear zeroes every count without releasing memory.
func (g *Grid) Clear() {
	for _, row := range g.two {
		clear(row)
	}

	for _, row := range g.one {
		clear(row)
	}
}

// ClearPool zeroes the migration pool.
func (g *Grid) ClearPool() {
	clear(g.two[Pool])

	if g.one != nil {
		clear(g.one[Pool])
	}
}

func (g *Grid) index(h, j, k int) int {
	g.hostMustBeValid(h)

	if j < 0 || j > g.kmax || k < 0 || k > g.kmax {
		panic(fmt.Sprintf("population: state (%d,%d) outside 0..%d",
			j, k, g.kmax))
	}

	return TwoIndex(g.kmax, j, k)
}

func (g *Grid) oneIndex(h, j int) int {
	g.hostMustBeValid(h)
	g.oneMustExist()

	if j < 0 || j > 2*g.kmax {
		panic(fmt.Sprintf("population: state %d outside 0..%d", j, 2*g.kmax))
	}

	return j
}

func (g *Grid) hostMustBeValid(h int) {
	if h < 0 || h > g.hosts {
		panic(fmt.Sprintf("population: host %d outside 0..%d", h, g.hosts))
	}
}

func (g *Grid) oneMustExist() {
	if g.one == nil {
		panic("population: grid has no one-segment layer")
	}
}
