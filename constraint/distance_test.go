package constraint

import (
	"testing"

	"github.com/pthm-cable/impulse2d/objmodel"
	"github.com/pthm-cable/impulse2d/particle"
	"github.com/pthm-cable/impulse2d/vecmath"
)

func newLinkedParticles(t *testing.T, sep float32) (*particle.Store, particle.ID, particle.ID) {
	t.Helper()
	particles := particle.New(2)
	a := particles.Create(objmodel.Particle, vecmath.Zero, vecmath.Zero, 1, 1, objmodel.Color{})
	b := particles.Create(objmodel.Particle, vecmath.Vec2{X: sep}, vecmath.Zero, 1, 1, objmodel.Color{})
	return particles, a, b
}

func TestDistanceCreateDefaultsRestLengthToCurrentSeparation(t *testing.T) {
	particles, a, b := newLinkedParticles(t, 5)
	distances := NewDistanceStore(4)
	id := distances.Create(particles, a, b, 0.5)
	idx := distances.IndexOf(id)
	if got := distances.RestLength[idx]; got != 5 {
		t.Fatalf("RestLength = %v, want 5", got)
	}
}

func TestDistanceCreateWithRestLengthPinsExplicitLength(t *testing.T) {
	_, a, b := newLinkedParticles(t, 5)
	distances := NewDistanceStore(4)
	id := distances.CreateWithRestLength(a, b, 0.5, 30)
	idx := distances.IndexOf(id)
	if got := distances.RestLength[idx]; got != 30 {
		t.Fatalf("RestLength = %v, want 30", got)
	}
}

func TestDistanceCreateFailsWhenFull(t *testing.T) {
	particles, a, b := newLinkedParticles(t, 5)
	distances := NewDistanceStore(1)
	if id := distances.Create(particles, a, b, 0.5); id == InvalidID {
		t.Fatal("first Create unexpectedly failed")
	}
	if id := distances.Create(particles, a, b, 0.5); id != InvalidID {
		t.Fatalf("Create on full store = %v, want InvalidID", id)
	}
}

func TestDistanceDeleteSwapsLastIntoFreedSlot(t *testing.T) {
	particles, a, b := newLinkedParticles(t, 5)
	distances := NewDistanceStore(4)
	first := distances.Create(particles, a, b, 0.5)
	second := distances.Create(particles, a, b, 0.5)
	third := distances.Create(particles, a, b, 0.5)

	if !distances.Delete(first) {
		t.Fatal("Delete(first) = false")
	}
	if distances.Len() != 2 {
		t.Fatalf("Len() = %v, want 2", distances.Len())
	}
	if distances.IndexOf(first) != -1 {
		t.Fatal("deleted id still resolves to a dense index")
	}
	if distances.IndexOf(second) == -1 {
		t.Fatal("surviving id lost its dense index")
	}
	if distances.IndexOf(third) == -1 {
		t.Fatal("swapped-in id lost its dense index")
	}
}

// S7/S9-style: a constraint at rest (particles already separated by
// rest_length, zero velocity) computes zero rest impulse.
func TestDistanceComputeDataAtRestProducesZeroRestImpulse(t *testing.T) {
	particles, a, b := newLinkedParticles(t, 10)
	distances := NewDistanceStore(4)
	id := distances.CreateWithRestLength(a, b, 0.5, 10)
	distances.ComputeData(particles, 1.0/60.0)

	idx := distances.IndexOf(id)
	if got := distances.RestImpulse[idx]; absF(got) > 1e-5 {
		t.Fatalf("RestImpulse at rest = %v, want ~0", got)
	}
	wantUnit := vecmath.Vec2{X: 1}
	if got := distances.Unit[idx]; got != wantUnit {
		t.Fatalf("Unit = %v, want %v", got, wantUnit)
	}
}

func TestDistanceComputeDataStretchedProducesNonZeroRestImpulse(t *testing.T) {
	particles, a, b := newLinkedParticles(t, 15)
	distances := NewDistanceStore(4)
	id := distances.CreateWithRestLength(a, b, 0.5, 10)
	distances.ComputeData(particles, 1.0/60.0)

	idx := distances.IndexOf(id)
	if got := distances.RestImpulse[idx]; got >= 0 {
		t.Fatalf("RestImpulse stretched = %v, want < 0 (pulling together)", got)
	}
}

// Applying one corrective sweep on a stretched link should pull the two
// particles' impulses toward each other along the constraint axis.
func TestDistanceApplyCorrectiveImpulsePullsParticlesTogether(t *testing.T) {
	particles, a, b := newLinkedParticles(t, 15)
	distances := NewDistanceStore(4)
	distances.CreateWithRestLength(a, b, 0.5, 10)
	distances.ComputeData(particles, 1.0/60.0)
	distances.ApplyCorrectiveImpulse(particles)

	idxA := particles.IndexOf(a)
	idxB := particles.IndexOf(b)
	if particles.Impulse[idxA].X <= 0 {
		t.Fatalf("A impulse.X = %v, want > 0 (pulled toward B)", particles.Impulse[idxA].X)
	}
	if particles.Impulse[idxB].X >= 0 {
		t.Fatalf("B impulse.X = %v, want < 0 (pulled toward A)", particles.Impulse[idxB].X)
	}
}

func TestDistanceApplyWarmStartResetsAccumulator(t *testing.T) {
	particles, a, b := newLinkedParticles(t, 15)
	distances := NewDistanceStore(4)
	id := distances.CreateWithRestLength(a, b, 0.5, 10)
	distances.ComputeData(particles, 1.0/60.0)
	distances.ApplyCorrectiveImpulse(particles)

	idx := distances.IndexOf(id)
	if distances.AccumulatedImpulse[idx] == vecmath.Zero {
		t.Fatal("AccumulatedImpulse is zero after a corrective sweep")
	}

	distances.ApplyWarmStart(particles)
	if distances.AccumulatedImpulse[idx] != vecmath.Zero {
		t.Fatalf("AccumulatedImpulse = %v after ApplyWarmStart, want zero", distances.AccumulatedImpulse[idx])
	}
}

func absF(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
