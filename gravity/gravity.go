// Package gravity implements the N-body and bipartite Newtonian gravity
// accumulators. Both write directly into particle.Impulse, the same
// shared column the constraint solvers read and write, so Gravity.SolveSelf
// must run before the constraint pipeline's warm-start in World.Step.
package gravity

import (
	"github.com/pthm-cable/impulse2d/internal/parallel"
	"github.com/pthm-cable/impulse2d/particle"
	"github.com/pthm-cable/impulse2d/vecmath"
)

// softening is epsilon-squared in the softened inverse-square law,
// avoiding a singular force at zero separation.
const softening = 1.0

// Gravity accumulates Newtonian gravitational impulses. G is the
// gravitational constant, in the caller's chosen units.
type Gravity struct {
	G float32
}

// New returns a Gravity accumulator with the given gravitational constant.
func New(g float32) *Gravity {
	return &Gravity{G: g}
}

// SolveSelf applies N-body self-gravity within one group of particles.
// Each particle's force contributions are summed in parallel into a
// private scratch slot indexed by its position in ids (never into another
// worker's slot), then a second parallel pass reduces scratch into
// particle.Impulse — the same "parallel map, parallel reduce" shape the
// package uses to avoid the shared-write race a single parallel pass
// would have.
func (g *Gravity) SolveSelf(particles *particle.Store, ids []particle.ID, dt float32) {
	n := len(ids)
	if n == 0 {
		return
	}

	indices := make([]int32, n)
	for i, id := range ids {
		indices[i] = particles.IndexOf(id)
	}

	scratch := make([]vecmath.Vec2, n)
	parallel.Range(n, func(i int) {
		ai := indices[i]
		posA := particles.Position[ai]

		var sum vecmath.Vec2
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			bj := indices[j]
			delta := particles.Position[bj].Sub(posA)
			d := delta.Len()
			if d <= 0 {
				continue
			}
			distSq := delta.LenSq() + softening
			magnitude := g.G * particles.Mass[ai] * particles.Mass[bj] / distSq
			sum = sum.Add(delta.Scale(magnitude / d))
		}
		scratch[i] = sum
	})

	parallel.Range(n, func(i int) {
		ai := indices[i]
		accel := scratch[i].Scale(particles.InvMass[ai])
		particles.Impulse[ai] = particles.Impulse[ai].Add(accel.Scale(dt))
	})
}

// SolveBipartite applies gravity between two disjoint groups, sequentially
// — an O(len(groupA)*len(groupB)) pass with no shared-write hazard to
// parallelize away.
func (g *Gravity) SolveBipartite(particles *particle.Store, groupA, groupB []particle.ID, dt float32) {
	for _, a := range groupA {
		idxA := particles.IndexOf(a)
		posA := particles.Position[idxA]
		massA := particles.Mass[idxA]

		for _, b := range groupB {
			idxB := particles.IndexOf(b)
			delta := particles.Position[idxB].Sub(posA)
			d := delta.Len()
			if d <= 0 {
				continue
			}
			distSq := delta.LenSq() + softening
			magnitude := g.G * massA * particles.Mass[idxB] / distSq
			impulse := delta.Scale(magnitude / d * dt)

			particles.Impulse[idxA] = particles.Impulse[idxA].Add(impulse.Scale(particles.InvMass[idxA]))
			particles.Impulse[idxB] = particles.Impulse[idxB].Sub(impulse.Scale(particles.InvMass[idxB]))
		}
	}
}
