// Package particle holds the Struct-of-Arrays store of point-mass
// particles: the ID allocator, the swap-delete slot map, and the
// symplectic-Euler integrator.
package particle

import (
	"github.com/pthm-cable/impulse2d/internal/parallel"
	"github.com/pthm-cable/impulse2d/objmodel"
	"github.com/pthm-cable/impulse2d/vecmath"
)

// ID is a stable particle identifier. It never changes for the lifetime of
// the particle, even though the particle's dense index may move on every
// swap-delete of a different particle.
type ID int32

// InvalidID is returned by Create when the store is full, and is the
// value stale or unknown IDs resolve to.
const InvalidID ID = -1

// Store is a fixed-capacity Struct-of-Arrays pool of particles. The dense
// region [0, N) holds every live particle; index_of/id_of are the
// bidirectional id<->index map; free holds reusable ids in LIFO order.
type Store struct {
	capacity int
	n        int

	idOf    []ID    // dense index -> stable id
	indexOf []int32 // stable id -> dense index, or -1 if free
	free    []ID    // free id stack, push/pop from the back

	ObjectType   []objmodel.ObjectType
	Position     []vecmath.Vec2
	RestPosition []vecmath.Vec2
	Velocity     []vecmath.Vec2
	Impulse      []vecmath.Vec2
	Mass         []float32
	InvMass      []float32

	// Scratch fields reserved for fluid/soft-body extensions. Step resets
	// Density, SumDistances and SumVelocities every tick; NumConstraints is
	// only zeroed by Create.
	Density        []float32
	SumDistances   []float32
	SumVelocities  []float32
	NumConstraints []int32

	Radius            []float32
	InteractionRadius []float32
	Color             []objmodel.Color
}

// New allocates a store with room for capacity live particles.
func New(capacity int) *Store {
	s := &Store{
		capacity: capacity,

		idOf:    make([]ID, capacity),
		indexOf: make([]int32, capacity),
		free:    make([]ID, 0, capacity),

		ObjectType:   make([]objmodel.ObjectType, capacity),
		Position:     make([]vecmath.Vec2, capacity),
		RestPosition: make([]vecmath.Vec2, capacity),
		Velocity:     make([]vecmath.Vec2, capacity),
		Impulse:      make([]vecmath.Vec2, capacity),
		Mass:         make([]float32, capacity),
		InvMass:      make([]float32, capacity),

		Density:        make([]float32, capacity),
		SumDistances:   make([]float32, capacity),
		SumVelocities:  make([]float32, capacity),
		NumConstraints: make([]int32, capacity),

		Radius:            make([]float32, capacity),
		InteractionRadius: make([]float32, capacity),
		Color:             make([]objmodel.Color, capacity),
	}
	s.Clear()
	return s
}

// Clear resets the store to empty. Creation order after Clear yields ids
// capacity-1, capacity-2, ... down to 0, matching the LIFO free stack.
func (s *Store) Clear() {
	s.n = 0
	s.free = s.free[:0]
	for i := 0; i < s.capacity; i++ {
		s.indexOf[i] = -1
		s.free = append(s.free, ID(i))
	}
}

// Len returns the number of live particles.
func (s *Store) Len() int { return s.n }

// Capacity returns the fixed maximum number of live particles.
func (s *Store) Capacity() int { return s.capacity }

// IndexOf returns the dense index of id, or -1 if id is unknown or freed.
func (s *Store) IndexOf(id ID) int32 {
	if id < 0 || int(id) >= s.capacity {
		return -1
	}
	return s.indexOf[id]
}

// IDAt returns the stable id stored at dense index i.
func (s *Store) IDAt(i int) ID { return s.idOf[i] }

// Create allocates a new particle and returns its stable id, or InvalidID
// if the store is full. mass<=0 marks a static, infinite-mass particle
// (inv_mass is then zero).
func (s *Store) Create(objType objmodel.ObjectType, position, velocity vecmath.Vec2, mass, radius float32, color objmodel.Color) ID {
	if s.n >= s.capacity {
		return InvalidID
	}

	id := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]

	idx := s.n
	s.n++

	s.idOf[idx] = id
	s.indexOf[id] = int32(idx)

	s.ObjectType[idx] = objType
	s.Position[idx] = position
	s.RestPosition[idx] = position
	s.Velocity[idx] = velocity
	s.Impulse[idx] = vecmath.Zero

	s.Mass[idx] = mass
	if mass > 0 {
		s.InvMass[idx] = 1 / mass
	} else {
		s.InvMass[idx] = 0
	}

	s.Density[idx] = 0
	s.SumDistances[idx] = 0
	s.SumVelocities[idx] = 0
	s.NumConstraints[idx] = 0

	s.Radius[idx] = radius
	s.InteractionRadius[idx] = radius + 0.5
	s.Color[idx] = color

	return id
}

// Delete removes the particle with the given id via swap-with-last on
// every column. Returns false if id is out of range or already freed.
func (s *Store) Delete(id ID) bool {
	if id < 0 || int(id) >= s.capacity {
		return false
	}
	idx := s.indexOf[id]
	if idx == -1 {
		return false
	}

	last := s.n - 1
	if int(idx) != last {
		lastID := s.idOf[last]

		s.idOf[idx] = lastID
		s.indexOf[lastID] = idx

		s.ObjectType[idx] = s.ObjectType[last]
		s.Position[idx] = s.Position[last]
		s.RestPosition[idx] = s.RestPosition[last]
		s.Velocity[idx] = s.Velocity[last]
		s.Impulse[idx] = s.Impulse[last]
		s.Mass[idx] = s.Mass[last]
		s.InvMass[idx] = s.InvMass[last]
		s.Density[idx] = s.Density[last]
		s.SumDistances[idx] = s.SumDistances[last]
		s.SumVelocities[idx] = s.SumVelocities[last]
		s.NumConstraints[idx] = s.NumConstraints[last]
		s.Radius[idx] = s.Radius[last]
		s.InteractionRadius[idx] = s.InteractionRadius[last]
		s.Color[idx] = s.Color[last]
	}

	s.indexOf[id] = -1
	s.n = last
	s.free = append(s.free, id)
	return true
}

// PositionByID returns the world position of id, or the zero vector for
// an invalid or stale id.
func (s *Store) PositionByID(id ID) vecmath.Vec2 {
	idx := s.IndexOf(id)
	if idx == -1 {
		return vecmath.Zero
	}
	return s.Position[idx]
}

// Step integrates velocity and position for every live particle and
// resets the per-tick scratch columns. Static particles (inv_mass == 0)
// have impulse ignored for the velocity update but impulse is still
// zeroed, along with density/sum_distances/sum_velocities.
//
// The integrator is symplectic Euler in impulse space: impulse already
// carries the dt factor applied by the solvers and by gravity, so Step
// does not multiply impulse by dt again.
func (s *Store) Step(dt float32) {
	n := s.n
	parallel.Range(n, func(i int) {
		if s.InvMass[i] > 0 {
			s.Velocity[i] = s.Velocity[i].Add(s.Impulse[i])
			s.Position[i] = s.Position[i].Add(s.Velocity[i].Scale(dt))
		}
		s.Impulse[i] = vecmath.Zero
		s.Density[i] = 0
		s.SumDistances[i] = 0
		s.SumVelocities[i] = 0
	})
}
