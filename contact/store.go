// Package contact holds the transient particle-pair collision store. Each
// contact is keyed by the 64-bit pair key (minID<<32)|maxID rather than by
// its own stable id: the pair itself is the identity. Contacts are created
// by the broadphase/narrowphase pipeline in World, refreshed every tick,
// and pruned once the pair separates far enough.
package contact

import (
	"github.com/pthm-cable/impulse2d/internal/parallel"
	"github.com/pthm-cable/impulse2d/particle"
	"github.com/pthm-cable/impulse2d/vecmath"
)

// Key returns the canonical pair key for particles a and b, with the
// smaller id always in the high bits.
func Key(a, b particle.ID) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

// Default compliance coefficients for contact resolution, per spec.
const (
	defaultStiffness  = 0.5
	defaultDamping    = 1.0
	defaultWarmstart  = 0.5
	defaultCorrection = 0.2

	// pruneMargin is the extra narrowphase/broadphase slack beyond the
	// summed radii, both for creation and for the prune threshold.
	pruneMargin = 0.5
)

// pruneFlag is the sentinel written into ReducedMass to mark a contact for
// removal during the next Prune call — a hot-path flag encoded in an
// existing column instead of a separate parallel-unsafe side channel.
const pruneFlag = -1

// Store is the SoA pool of live contacts, keyed by pair.
type Store struct {
	capacity int
	n        int

	keyAt   []uint64
	indexOf map[uint64]int32

	ParticleA []particle.ID
	ParticleB []particle.ID

	CStiffness  []float32
	CDamping    []float32
	CWarmstart  []float32
	CCorrection []float32

	ReducedMass []float32
	Distance    []float32
	RestImpulse []float32
	Unit        []vecmath.Vec2

	AccumulatedImpulse []vecmath.Vec2
}

// New allocates a store with room for capacity live contacts.
func New(capacity int) *Store {
	return &Store{
		capacity: capacity,

		keyAt:   make([]uint64, capacity),
		indexOf: make(map[uint64]int32, capacity*2),

		ParticleA: make([]particle.ID, capacity),
		ParticleB: make([]particle.ID, capacity),

		CStiffness:  make([]float32, capacity),
		CDamping:    make([]float32, capacity),
		CWarmstart:  make([]float32, capacity),
		CCorrection: make([]float32, capacity),

		ReducedMass: make([]float32, capacity),
		Distance:    make([]float32, capacity),
		RestImpulse: make([]float32, capacity),
		Unit:        make([]vecmath.Vec2, capacity),

		AccumulatedImpulse: make([]vecmath.Vec2, capacity),
	}
}

// Clear removes every live contact.
func (s *Store) Clear() {
	s.n = 0
	for k := range s.indexOf {
		delete(s.indexOf, k)
	}
}

// Len returns the number of live contacts.
func (s *Store) Len() int { return s.n }

// Has reports whether a contact already exists for the pair (a, b).
func (s *Store) Has(a, b particle.ID) bool {
	_, ok := s.indexOf[Key(a, b)]
	return ok
}

// Create runs the narrowphase test for particles a and b and, if they are
// within pruneMargin of touching, inserts a new contact. Returns false if
// the pair already has a contact, the store is full, or the narrowphase
// test rejects the pair.
func (s *Store) Create(particles *particle.Store, a, b particle.ID) bool {
	if a > b {
		a, b = b, a
	}
	key := Key(a, b)
	if _, exists := s.indexOf[key]; exists {
		return false
	}
	if s.n >= s.capacity {
		return false
	}

	idxA := particles.IndexOf(a)
	idxB := particles.IndexOf(b)
	if idxA == -1 || idxB == -1 {
		return false
	}

	deltaPos := particles.Position[idxB].Sub(particles.Position[idxA])
	distSq := deltaPos.LenSq()
	sumR := particles.Radius[idxA] + particles.Radius[idxB]
	threshold := sumR + pruneMargin
	if distSq > threshold*threshold {
		return false
	}

	invMassA := particles.InvMass[idxA]
	invMassB := particles.InvMass[idxB]
	var reducedMass float32
	if invMassA+invMassB > 0 {
		reducedMass = 1 / (invMassA + invMassB)
	}

	idx := s.n
	s.n++

	s.keyAt[idx] = key
	s.indexOf[key] = int32(idx)

	s.ParticleA[idx] = a
	s.ParticleB[idx] = b

	s.CStiffness[idx] = defaultStiffness
	s.CDamping[idx] = defaultDamping
	s.CWarmstart[idx] = defaultWarmstart
	s.CCorrection[idx] = defaultCorrection

	s.ReducedMass[idx] = reducedMass
	s.Distance[idx] = 0
	s.RestImpulse[idx] = 0
	s.Unit[idx] = vecmath.Zero
	s.AccumulatedImpulse[idx] = vecmath.Zero

	return true
}

// delete removes the contact at key via swap-with-last.
func (s *Store) delete(key uint64) bool {
	idx, ok := s.indexOf[key]
	if !ok {
		return false
	}

	last := int32(s.n - 1)
	if idx != last {
		lastKey := s.keyAt[last]

		s.keyAt[idx] = lastKey
		s.indexOf[lastKey] = idx

		s.ParticleA[idx] = s.ParticleA[last]
		s.ParticleB[idx] = s.ParticleB[last]
		s.CStiffness[idx] = s.CStiffness[last]
		s.CDamping[idx] = s.CDamping[last]
		s.CWarmstart[idx] = s.CWarmstart[last]
		s.CCorrection[idx] = s.CCorrection[last]
		s.ReducedMass[idx] = s.ReducedMass[last]
		s.Distance[idx] = s.Distance[last]
		s.RestImpulse[idx] = s.RestImpulse[last]
		s.Unit[idx] = s.Unit[last]
		s.AccumulatedImpulse[idx] = s.AccumulatedImpulse[last]
	}

	delete(s.indexOf, key)
	s.n--
	return true
}

// ComputeData recomputes each live contact's geometry in parallel over
// three regimes: separated beyond the prune margin (flagged via
// ReducedMass=pruneFlag), separated but still tracked (non-penetrating),
// or actively penetrating. Each worker writes only its own row, same as
// the other two constraint stores; only Prune and the Gauss-Seidel sweep
// must be sequential.
func (s *Store) ComputeData(particles *particle.Store, invDt float32) {
	n := s.n
	parallel.Range(n, func(i int) {
		s.computeOne(particles, invDt, i)
	})
}

func (s *Store) computeOne(particles *particle.Store, invDt float32, i int) {
	idxA := particles.IndexOf(s.ParticleA[i])
	idxB := particles.IndexOf(s.ParticleB[i])

	deltaPos := particles.Position[idxB].Sub(particles.Position[idxA])
	distSq := deltaPos.LenSq()
	sumR := particles.Radius[idxA] + particles.Radius[idxB]

	pruneThreshold := sumR + pruneMargin
	if distSq > pruneThreshold*pruneThreshold {
		s.ReducedMass[i] = pruneFlag
		return
	}

	if distSq > sumR*sumR {
		s.RestImpulse[i] = 0
		s.Distance[i] = 1
		return
	}

	d := deltaPos.Len()
	s.Distance[i] = d - sumR

	var unit vecmath.Vec2
	if d > 0 {
		unit = deltaPos.Scale(1 / d)
	} else {
		unit = vecmath.Vec2{X: 1, Y: 0}
	}
	s.Unit[i] = unit

	velA := particles.Velocity[idxA]
	velB := particles.Velocity[idxB]
	velocityError := unit.Dot(velB.Sub(velA))

	s.RestImpulse[i] = -(s.Distance[i]*s.CStiffness[i]*invDt + velocityError*s.CDamping[i])
}

// Prune removes every contact flagged by ComputeData as separated beyond
// the prune margin. Iterates the dense range backward so swap-delete
// never skips an entry. Must run sequentially.
func (s *Store) Prune() {
	for i := s.n - 1; i >= 0; i-- {
		if s.ReducedMass[i] == pruneFlag {
			s.delete(s.keyAt[i])
		}
	}
}

// ApplyWarmStart seeds particle.Impulse from the previous tick's
// accumulated impulse. Runs sequentially, unlike the parallel warm-start
// on the other two constraint kinds.
func (s *Store) ApplyWarmStart(particles *particle.Store) {
	for i := 0; i < s.n; i++ {
		projected := s.Unit[i].Dot(s.AccumulatedImpulse[i])
		s.AccumulatedImpulse[i] = vecmath.Zero
		if projected < 0 {
			continue
		}

		idxA := particles.IndexOf(s.ParticleA[i])
		idxB := particles.IndexOf(s.ParticleB[i])

		warmstart := s.Unit[i].Scale(projected * s.CWarmstart[i])
		particles.Impulse[idxA] = particles.Impulse[idxA].Sub(warmstart.Scale(particles.InvMass[idxA]))
		particles.Impulse[idxB] = particles.Impulse[idxB].Add(warmstart.Scale(particles.InvMass[idxB]))
	}
}

// ApplyCorrectiveImpulse runs one symmetric Gauss-Seidel sweep over every
// penetrating contact (Distance <= 0); non-penetrating contacts are
// skipped. Must stay sequential.
func (s *Store) ApplyCorrectiveImpulse(particles *particle.Store) {
	for i := 0; i < s.n; i++ {
		s.solveOne(particles, i)
	}
	for i := s.n - 1; i >= 0; i-- {
		s.solveOne(particles, i)
	}
}

func (s *Store) solveOne(particles *particle.Store, i int) {
	if s.Distance[i] > 0 {
		return
	}

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
