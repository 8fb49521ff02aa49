package population

// Side names one of the two grids of a Store.
type Side int

// The two sides of a Store.
const (
	SideA Side = iota
	SideB
)

func (s Side) other() Side {
	if s == SideA {
		return SideB
	}

	return SideA
}

// String returns the name of the side.
func (s Side) String() string {
	if s == SideA {
		return "A"
	}

	return "B"
}

// A Store is a double buffer of grids. Stages read Current and write Next;
// only Swap moves the active tag.
type Store struct {
	grids  [2]*Grid
	active Side
}

// NewStore allocates both grids of a store.
func NewStore(hosts, kmax int, withOne bool) *Store {
	return &Store{
		grids: [2]*Grid{
			NewGrid(hosts, kmax, withOne),
			NewGrid(hosts, kmax, withOne),
		},
		active: SideA,
	}
}

// Active returns the side currently holding the population.
func (s *Store) Active() Side {
	return s.active
}

// Current returns the grid holding the population.
func (s *Store) Current() *Grid {
	return s.grids[s.active]
}

// Next returns the grid that the running stage writes to.
func (s *Store) Next() *Grid {
	return s.grids[s.active.other()]
}

// Swap makes Next the current grid and clears the grid that becomes Next.
func (s *Store) Swap() {
	s.active = s.active.other()
	s.grids[s.active.other()].Clear()
}

// Reset clears both grids and makes SideA current.
func (s *Store) Reset() {
	s.grids[SideA].Clear()
	s.grids[SideB].Clear()
	s.active = SideA
}
