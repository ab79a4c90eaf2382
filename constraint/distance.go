// Package constraint holds the two persistent constraint stores:
// DistanceConstraint (a spring-like link between two particles) and
// AngularConstraint (an angle coupling between two distance constraints).
// Both are Struct-of-Arrays pools with the same swap-delete slot map as
// particle.Store, but keyed by their own stable ids; cross-store
// references (particle ids, distance-constraint ids) are always resolved
// fresh on every access because the referenced store may have swap-deleted
// between ticks.
//
// ApplyWarmStart on both stores runs through internal/parallel and adds
// into particle.Impulse without synchronization. Constraints that share a
// particle and are handled by different workers therefore race on that
// particle's impulse; World accepts this and does not serialize warm-start.
package constraint

import (
	"github.com/pthm-cable/impulse2d/internal/parallel"
	"github.com/pthm-cable/impulse2d/particle"
	"github.com/pthm-cable/impulse2d/vecmath"
)

// ID is a stable distance-constraint identifier.
type ID int32

// InvalidID is returned by Create when the store is full.
const InvalidID ID = -1

// DistanceStore is the SoA pool of distance constraints.
type DistanceStore struct {
	capacity int
	n        int

	idOf    []ID
	indexOf []int32
	free    []ID

	ParticleA []particle.ID
	ParticleB []particle.ID

	CStiffness  []float32
	CDamping    []float32
	CWarmstart  []float32
	CCorrection []float32

	Radius     []float32
	RestLength []float32

	// Transient, recomputed by ComputeData every tick.
	Unit            []vecmath.Vec2
	RestImpulse     []float32
	ReducedMass     []float32
	InverseInertia  []float32
	AngularVelocity []float32

	// Persistent across ticks, the warm-start driver.
	AccumulatedImpulse []vecmath.Vec2
}

// NewDistanceStore allocates a store with room for capacity constraints.
func NewDistanceStore(capacity int) *DistanceStore {
	s := &DistanceStore{
		capacity: capacity,

		idOf:    make([]ID, capacity),
		indexOf: make([]int32, capacity),
		free:    make([]ID, 0, capacity),

		ParticleA: make([]particle.ID, capacity),
		ParticleB: make([]particle.ID, capacity),

		CStiffness:  make([]float32, capacity),
		CDamping:    make([]float32, capacity),
		CWarmstart:  make([]float32, capacity),
		CCorrection: make([]float32, capacity),

		Radius:     make([]float32, capacity),
		RestLength: make([]float32, capacity),

		Unit:            make([]vecmath.Vec2, capacity),
		RestImpulse:     make([]float32, capacity),
		ReducedMass:     make([]float32, capacity),
		InverseInertia:  make([]float32, capacity),
		AngularVelocity: make([]float32, capacity),

		AccumulatedImpulse: make([]vecmath.Vec2, capacity),
	}
	s.Clear()
	return s
}

// Clear resets the store to empty.
func (s *DistanceStore) Clear() {
	s.n = 0
	s.free = s.free[:0]
	for i := 0; i < s.capacity; i++ {
		s.indexOf[i] = -1
		s.free = append(s.free, ID(s.capacity-1-i))
	}
}

// Len returns the number of live distance constraints.
func (s *DistanceStore) Len() int { return s.n }

// IndexOf returns the dense index of id, or -1 if unknown or freed.
func (s *DistanceStore) IndexOf(id ID) int32 {
	if id < 0 || int(id) >= s.capacity {
		return -1
	}
	return s.indexOf[id]
}

// IDAt returns the stable id at dense index i.
func (s *DistanceStore) IDAt(i int) ID { return s.idOf[i] }

// defaultCompliance is the [0,1] default applied to every compliance
// coefficient at creation, per spec.
const defaultCompliance = 1.0

// Create allocates a distance constraint between particles a and b, with
// rest_length defaulting to the particles' current separation (the
// spec's resolution of the source's hardcoded rest_length=30). Use
// CreateWithRestLength to pin an explicit target length instead.
func (s *DistanceStore) Create(particles *particle.Store, a, b particle.ID, radius float32) ID {
	posA := particles.PositionByID(a)
	posB := particles.PositionByID(b)
	restLength := posB.Sub(posA).Len()
	return s.create(a, b, radius, restLength)
}

// CreateWithRestLength allocates a distance constraint with an explicit
// target length instead of the current inter-particle distance.
func (s *DistanceStore) CreateWithRestLength(a, b particle.ID, radius, restLength float32) ID {
	return s.create(a, b, radius, restLength)
}

func (s *DistanceStore) create(a, b particle.ID, radius, restLength float32) ID {
	if s.n >= s.capacity {
		return InvalidID
	}

	id := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]

	idx := s.n
	s.n++

	s.idOf[idx] = id
	s.indexOf[id] = int32(idx)

	s.ParticleA[idx] = a
	s.ParticleB[idx] = b

	s.CStiffness[idx] = defaultCompliance
	s.CDamping[idx] = defaultCompliance
	s.CWarmstart[idx] = defaultCompliance
	s.CCorrection[idx] = defaultCompliance

	s.Radius[idx] = radius
	s.RestLength[idx] = restLength

	s.Unit[idx] = vecmath.Zero
	s.RestImpulse[idx] = 0
	s.ReducedMass[idx] = 0
	s.InverseInertia[idx] = 0
	s.AngularVelocity[idx] = 0
	s.AccumulatedImpulse[idx] = vecmath.Zero

	return id
}

// Delete removes the distance constraint with the given id via
// swap-with-last. Returns false if id is unknown or already freed.
func (s *DistanceStore) Delete(id ID) bool {
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

		s.ParticleA[idx] = s.ParticleA[last]
		s.ParticleB[idx] = s.ParticleB[last]
		s.CStiffness[idx] = s.CStiffness[last]
		s.CDamping[idx] = s.CDamping[last]
		s.CWarmstart[idx] = s.CWarmstart[last]
		s.CCorrection[idx] = s.CCorrection[last]
		s.Radius[idx] = s.Radius[last]
		s.RestLength[idx] = s.RestLength[last]
		s.Unit[idx] = s.Unit[last]
		s.RestImpulse[idx] = s.RestImpulse[last]
		s.ReducedMass[idx] = s.ReducedMass[last]
		s.InverseInertia[idx] = s.InverseInertia[last]
		s.AngularVelocity[idx] = s.AngularVelocity[last]
		s.AccumulatedImpulse[idx] = s.AccumulatedImpulse[last]
	}

	s.indexOf[id] = -1
	s.n = last
	s.free = append(s.free, id)
	return true
}

// ComputeData recomputes the geometry and rest-impulse of every live
// constraint in parallel: deltaPos, unit, the PD rest impulse, and the
// reduced mass / inverse inertia used by the angular store.
func (s *DistanceStore) ComputeData(particles *particle.Store, invDt float32) {
	n := s.n
	parallel.Range(n, func(i int) {
		idxA := particles.IndexOf(s.ParticleA[i])
		idxB := particles.IndexOf(s.ParticleB[i])

		posA := particles.Position[idxA]
		posB := particles.Position[idxB]
		deltaPos := posB.Sub(posA)
		d := deltaPos.Len()

		var unit vecmath.Vec2
		if d > 0 {
			unit = deltaPos.Scale(1 / d)
		}
		s.Unit[i] = unit

		distanceError := unit.Dot(deltaPos) - s.RestLength[i]

		velA := particles.Velocity[idxA]
		velB := particles.Velocity[idxB]
		deltaVel := velB.Sub(velA)
		velocityError := unit.Dot(deltaVel)

		s.RestImpulse[i] = -(distanceError*s.CStiffness[i]*invDt + velocityError*s.CDamping[i])

		invMassA := particles.InvMass[idxA]
		invMassB := particles.InvMass[idxB]
		var reducedMass float32
		if invMassA+invMassB > 0 {
			reducedMass = 1 / (invMassA + invMassB)
		}
		s.ReducedMass[i] = reducedMass

		inertia := d * d * reducedMass
		var inverseInertia float32
		if inertia > 0 {
			inverseInertia = 1 / inertia
		}
		s.InverseInertia[i] = inverseInertia

		s.AngularVelocity[i] = deltaPos.Cross(deltaVel) * reducedMass * inverseInertia
	})
}

// ApplyWarmStart seeds particle.Impulse with the previous tick's
// accumulated impulse, then resets the accumulator for this tick's
// corrective sweeps. Runs in parallel; see the package doc on the
// resulting benign float accumulation race on particle.Impulse.
func (s *DistanceStore) ApplyWarmStart(particles *particle.Store) {
	n := s.n
	parallel.Range(n, func(i int) {
		projected := s.Unit[i].Dot(s.AccumulatedImpulse[i])
		s.AccumulatedImpulse[i] = vecmath.Zero
		if projected < 0 {
			return
		}

		idxA := particles.IndexOf(s.ParticleA[i])
		idxB := particles.IndexOf(s.ParticleB[i])

		warmstart := s.Unit[i].Scale(projected * s.CWarmstart[i])
		particles.Impulse[idxA] = particles.Impulse[idxA].Sub(warmstart.Scale(particles.InvMass[idxA]))
		particles.Impulse[idxB] = particles.Impulse[idxB].Add(warmstart.Scale(particles.InvMass[idxB]))
	})
}

// ApplyCorrectiveImpulse runs one symmetric Gauss-Seidel sweep (forward
// then reverse) over every live constraint. This must stay sequential:
// each constraint reads the particle.Impulse values most recently written
// by earlier constraints in the same sweep.
func (s *DistanceStore) ApplyCorrectiveImpulse(particles *particle.Store) {
	for i := 0; i < s.n; i++ {
		s.solveOne(particles, i)
	}
	for i := s.n - 1; i >= 0; i-- {
		s.solveOne(particles, i)
	}
}

func (s *DistanceStore) solveOne(particles *particle.Store, i int) {
	idxA := particles.IndexOf(s.ParticleA[i])
	idxB := particles.IndexOf(s.ParticleB[i])

	impulseA := particles.Impulse[idxA]
	impulseB := particles.Impulse[idxB]
	deltaImpulse := impulseB.Sub(impulseA)

	projected := s.Unit[i].Dot(deltaImpulse)
	errorTerm := (projected - s.RestImpulse[i]) * s.ReducedMass[i] * s.CCorrection[i]
	corrective := s.Unit[i].Scale(-errorTerm)

	particles.Impulse[idxA] = particles.Impulse[idxA].Sub(corrective.Scale(particles.InvMass[idxA]))
	particles.Impulse[idxB] = particles.Impulse[idxB].Add(corrective.Scale(particles.InvMass[idxB]))
	s.AccumulatedImpulse[i] = s.AccumulatedImpulse[i].Add(corrective)
}
