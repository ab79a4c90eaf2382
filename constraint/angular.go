package constraint

import (
	"github.com/pthm-cable/impulse2d/internal/parallel"
	"github.com/pthm-cable/impulse2d/particle"
	"github.com/pthm-cable/impulse2d/vecmath"
)

// AngularID is a stable angular-constraint identifier.
type AngularID int32

// InvalidAngularID is returned by CreateAngular when the store is full.
const InvalidAngularID AngularID = -1

// AngularStore is the SoA pool of angular constraints. Each couples two
// distance constraints and resists their relative rotation away from a
// rest angle frozen at creation.
type AngularStore struct {
	capacity int
	n        int

	idOf    []AngularID
	indexOf []int32
	free    []AngularID

	DCA []ID
	DCB []ID

	CStiffness  []float32
	CDamping    []float32
	CWarmstart  []float32
	CCorrection []float32

	// Angle = (cos, sin) of the signed angle from dcA.Unit to dcB.Unit.
	Angle     []vecmath.Vec2
	RestAngle []vecmath.Vec2

	RestImpulse    []float32
	ReducedInertia []float32

	AccumulatedImpulse []float32
}

// NewAngularStore allocates a store with room for capacity constraints.
func NewAngularStore(capacity int) *AngularStore {
	s := &AngularStore{
		capacity: capacity,

		idOf:    make([]AngularID, capacity),
		indexOf: make([]int32, capacity),
		free:    make([]AngularID, 0, capacity),

		DCA: make([]ID, capacity),
		DCB: make([]ID, capacity),

		CStiffness:  make([]float32, capacity),
		CDamping:    make([]float32, capacity),
		CWarmstart:  make([]float32, capacity),
		CCorrection: make([]float32, capacity),

		Angle:     make([]vecmath.Vec2, capacity),
		RestAngle: make([]vecmath.Vec2, capacity),

		RestImpulse:    make([]float32, capacity),
		ReducedInertia: make([]float32, capacity),

		AccumulatedImpulse: make([]float32, capacity),
	}
	s.Clear()
	return s
}

// Clear resets the store to empty.
func (s *AngularStore) Clear() {
	s.n = 0
	s.free = s.free[:0]
	for i := 0; i < s.capacity; i++ {
		s.indexOf[i] = -1
		s.free = append(s.free, AngularID(s.capacity-1-i))
	}
}

// Len returns the number of live angular constraints.
func (s *AngularStore) Len() int { return s.n }

// IndexOf returns the dense index of id, or -1 if unknown or freed.
func (s *AngularStore) IndexOf(id AngularID) int32 {
	if id < 0 || int(id) >= s.capacity {
		return -1
	}
	return s.indexOf[id]
}

// IDAt returns the stable id at dense index i.
func (s *AngularStore) IDAt(i int) AngularID { return s.idOf[i] }

// Create couples distance constraints dcA and dcB, freezing their current
// angle as RestAngle. dcA and dcB must already have had ComputeData called
// at least once (callers outside World.Step typically call
// distances.ComputeData once for setup before creating angular
// constraints).
func (s *AngularStore) Create(distances *DistanceStore, dcA, dcB ID) AngularID {
	if s.n >= s.capacity {
		return InvalidAngularID
	}

	idxA := distances.IndexOf(dcA)
	idxB := distances.IndexOf(dcB)
	uA := distances.Unit[idxA]
	uB := distances.Unit[idxB]
	restAngle := vecmath.Vec2{X: uA.Dot(uB), Y: uA.Cross(uB)}

	id := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]

	idx := s.n
	s.n++

	s.idOf[idx] = id
	s.indexOf[id] = int32(idx)

	s.DCA[idx] = dcA
	s.DCB[idx] = dcB

	s.CStiffness[idx] = defaultCompliance
	s.CDamping[idx] = defaultCompliance
	s.CWarmstart[idx] = defaultCompliance
	s.CCorrection[idx] = defaultCompliance

	s.Angle[idx] = restAngle
	s.RestAngle[idx] = restAngle

	s.RestImpulse[idx] = 0
	s.ReducedInertia[idx] = 0
	s.AccumulatedImpulse[idx] = 0

	return id
}

// Delete removes the angular constraint with the given id via
// swap-with-last. Returns false if id is unknown or already freed.
func (s *AngularStore) Delete(id AngularID) bool {
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

		s.DCA[idx] = s.DCA[last]
		s.DCB[idx] = s.DCB[last]
		s.CStiffness[idx] = s.CStiffness[last]
		s.CDamping[idx] = s.CDamping[last]
		s.CWarmstart[idx] = s.CWarmstart[last]
		s.CCorrection[idx] = s.CCorrection[last]
		s.Angle[idx] = s.Angle[last]
		s.RestAngle[idx] = s.RestAngle[last]
		s.RestImpulse[idx] = s.RestImpulse[last]
		s.ReducedInertia[idx] = s.ReducedInertia[last]
		s.AccumulatedImpulse[idx] = s.AccumulatedImpulse[last]
	}

	s.indexOf[id] = -1
	s.n = last
	s.free = append(s.free, id)
	return true
}

// ComputeData recomputes the current angle, angle error, and reduced
// inertia of every live constraint in parallel.
func (s *AngularStore) ComputeData(distances *DistanceStore, invDt float32) {
	n := s.n
	parallel.Range(n, func(i int) {
		idxA := distances.IndexOf(s.DCA[i])
		idxB := distances.IndexOf(s.DCB[i])

		uA := distances.Unit[idxA]
		uB := distances.Unit[idxB]
		angle := vecmath.Vec2{X: uA.Dot(uB), Y: uA.Cross(uB)}
		s.Angle[i] = angle

		restAngle := s.RestAngle[i]
		angleError := restAngle.X*angle.Y - restAngle.Y*angle.X

		angularVelocityError := distances.AngularVelocity[idxB] - distances.AngularVelocity[idxA]

		invInertiaA := distances.InverseInertia[idxA]
		invInertiaB := distances.InverseInertia[idxB]
		var reducedInertia float32
		if invInertiaA+invInertiaB > 0 {
			reducedInertia = 1 / (invInertiaA + invInertiaB)
		}
		s.ReducedInertia[i] = reducedInertia

		s.RestImpulse[i] = -(s.CStiffness[i]*angleError*invDt + s.CDamping[i]*angularVelocityError)
	})
}

// sideImpulse computes the local angular impulse contributed by one side
// (a distance constraint's two particles) of an angular constraint, along
// with the values the back-projection step needs to undo it.
type sideImpulse struct {
	distance       vecmath.Vec2
	inverseInertia float32
	reducedMass    float32
	angular        float32
	idx1, idx2     int32 // particle dense indices: P1=dc.ParticleA, P2=dc.ParticleB
	invMass1       float32
	invMass2       float32
}

func (s *AngularStore) computeSide(distances *DistanceStore, particles *particle.Store, dc ID) sideImpulse {
	dcIdx := distances.IndexOf(dc)
	idx1 := particles.IndexOf(distances.ParticleA[dcIdx])
	idx2 := particles.IndexOf(distances.ParticleB[dcIdx])

	distanceSide := particles.Position[idx2].Sub(particles.Position[idx1])
	impulseSide := particles.Impulse[idx2].Sub(particles.Impulse[idx1])

	reducedMass := distances.ReducedMass[dcIdx]
	inverseInertia := distances.InverseInertia[dcIdx]
	localImpulse := distanceSide.Cross(impulseSide) * reducedMass
	angular := localImpulse * inverseInertia

	return sideImpulse{
		distance:       distanceSide,
		inverseInertia: inverseInertia,
		reducedMass:    reducedMass,
		angular:        angular,
		idx1:           idx1,
		idx2:           idx2,
		invMass1:       particles.InvMass[idx1],
		invMass2:       particles.InvMass[idx2],
	}
}

// applyBackProjection pushes a scalar angular correction back into linear
// impulses on the two particles of one side.
func applyBackProjection(particles *particle.Store, side sideImpulse, corrective float32) {
	scale := corrective * side.inverseInertia * side.reducedMass
	newImpulse := side.distance.Perp().Scale(scale)

	particles.Impulse[side.idx1] = particles.Impulse[side.idx1].Sub(newImpulse.Scale(side.invMass1))
	particles.Impulse[side.idx2] = particles.Impulse[side.idx2].Add(newImpulse.Scale(side.invMass2))
}

// ApplyCorrectiveImpulse runs one symmetric Gauss-Seidel sweep (forward
// then reverse) over every live angular constraint. Must stay sequential
// for the same reason as DistanceStore.ApplyCorrectiveImpulse.
func (s *AngularStore) ApplyCorrectiveImpulse(distances *DistanceStore, particles *particle.Store) {
	for i := 0; i < s.n; i++ {
		s.solveOne(distances, particles, i)
	}
	for i := s.n - 1; i >= 0; i-- {
		s.solveOne(distances, particles, i)
	}
}

func (s *AngularStore) solveOne(distances *DistanceStore, particles *particle.Store, i int) {
	sideA := s.computeSide(distances, particles, s.DCA[i])
	sideB := s.computeSide(distances, particles, s.DCB[i])

	delta := sideB.angular - sideA.angular
	errorTerm := delta - s.RestImpulse[i]
	corrective := -errorTerm * s.ReducedInertia[i] * s.CCorrection[i]

	applyBackProjection(particles, sideA, corrective)
	applyBackProjection(particles, sideB, corrective)

	s.AccumulatedImpulse[i] += corrective
}

// ApplyWarmStart seeds the back-projected linear impulses from the
// previous tick's accumulated angular impulse, then resets the
// accumulator. Runs in parallel: distinct angular constraints may share
// distance constraints and therefore particles, making this a benign,
// documented race on particle.Impulse (see package doc).
func (s *AngularStore) ApplyWarmStart(distances *DistanceStore, particles *particle.Store) {
	n := s.n
	parallel.Range(n, func(i int) {
		warmstart := s.CWarmstart[i] * s.AccumulatedImpulse[i]
		s.AccumulatedImpulse[i] = 0

		sideA := s.computeSide(distances, particles, s.DCA[i])
		sideB := s.computeSide(distances, particles, s.DCB[i])

		applyBackProjection(particles, sideA, warmstart)
		applyBackProjection(particles, sideB, warmstart)
	})
}
