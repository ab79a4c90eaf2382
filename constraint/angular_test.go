package constraint

import (
	"testing"

	"github.com/pthm-cable/impulse2d/objmodel"
	"github.com/pthm-cable/impulse2d/particle"
	"github.com/pthm-cable/impulse2d/vecmath"
)

// newChain builds three colinear particles A-B-C (ten units apart each) and
// two distance constraints dcA (A-B), dcB (B-C), with ComputeData already
// run once so Unit/ReducedMass/InverseInertia are populated for Create.
func newChain(t *testing.T) (*particle.Store, *DistanceStore, ID, ID) {
	t.Helper()
	particles := particle.New(3)
	a := particles.Create(objmodel.Particle, vecmath.Vec2{X: 0}, vecmath.Zero, 1, 1, objmodel.Color{})
	b := particles.Create(objmodel.Particle, vecmath.Vec2{X: 10}, vecmath.Zero, 1, 1, objmodel.Color{})
	c := particles.Create(objmodel.Particle, vecmath.Vec2{X: 20}, vecmath.Zero, 1, 1, objmodel.Color{})

	distances := NewDistanceStore(4)
	dcA := distances.CreateWithRestLength(a, b, 0.5, 10)
	dcB := distances.CreateWithRestLength(b, c, 0.5, 10)
	distances.ComputeData(particles, 1.0/60.0)
	return particles, distances, dcA, dcB
}

// S7: an angular constraint created at the current (straight) angle and
// immediately re-measured reports zero angle error.
func TestAngularComputeDataAtRestProducesZeroRestImpulse(t *testing.T) {
	_, distances, dcA, dcB := newChain(t)
	angulars := NewAngularStore(4)
	id := angulars.Create(distances, dcA, dcB)

	angulars.ComputeData(distances, 1.0/60.0)

	idx := angulars.IndexOf(id)
	if got := angulars.RestImpulse[idx]; absF(got) > 1e-5 {
		t.Fatalf("RestImpulse at rest = %v, want ~0", got)
	}
	if angulars.Angle[idx] != angulars.RestAngle[idx] {
		t.Fatalf("Angle = %v, RestAngle = %v, want equal", angulars.Angle[idx], angulars.RestAngle[idx])
	}
}

func TestAngularCreateFailsWhenFull(t *testing.T) {
	_, distances, dcA, dcB := newChain(t)
	angulars := NewAngularStore(1)
	if id := angulars.Create(distances, dcA, dcB); id == InvalidAngularID {
		t.Fatal("first Create unexpectedly failed")
	}
	if id := angulars.Create(distances, dcA, dcB); id != InvalidAngularID {
		t.Fatalf("Create on full store = %v, want InvalidAngularID", id)
	}
}

func TestAngularDeleteSwapsLastIntoFreedSlot(t *testing.T) {
	_, distances, dcA, dcB := newChain(t)
	angulars := NewAngularStore(4)
	first := angulars.Create(distances, dcA, dcB)
	second := angulars.Create(distances, dcA, dcB)

	if !angulars.Delete(first) {
		t.Fatal("Delete(first) = false")
	}
	if angulars.Len() != 1 {
		t.Fatalf("Len() = %v, want 1", angulars.Len())
	}
	if angulars.IndexOf(second) == -1 {
		t.Fatal("surviving id lost its dense index")
	}
}

func TestAngularApplyWarmStartResetsAccumulator(t *testing.T) {
	particles, distances, dcA, dcB := newChain(t)
	angulars := NewAngularStore(4)
	id := angulars.Create(distances, dcA, dcB)

	// Bend the chain: nudge C off the line so there is an angle error to
	// correct.
	idxC := particles.IndexOf(particle.ID(0))
	particles.Position[idxC].Y += 5
	distances.ComputeData(particles, 1.0/60.0)
	angulars.ComputeData(distances, 1.0/60.0)
	angulars.ApplyCorrectiveImpulse(distances, particles)

	idx := angulars.IndexOf(id)
	if angulars.AccumulatedImpulse[idx] == 0 {
		t.Fatal("AccumulatedImpulse is zero after a corrective sweep on a bent chain")
	}

	angulars.ApplyWarmStart(distances, particles)
	if angulars.AccumulatedImpulse[idx] != 0 {
		t.Fatalf("AccumulatedImpulse = %v after ApplyWarmStart, want 0", angulars.AccumulatedImpulse[idx])
	}
}
