package world

import (
	"github.com/pthm-cable/impulse2d/constraint"
	"github.com/pthm-cable/impulse2d/objmodel"
	"github.com/pthm-cable/impulse2d/particle"
	"github.com/pthm-cable/impulse2d/vecmath"
)

// Factory is a thin creation/deletion facade over a World's stores. It
// holds no state of its own; Factory() on World returns one bound to that
// World.
type Factory struct {
	world *World
}

// Factory returns a Factory bound to w.
func (w *World) Factory() *Factory { return &Factory{world: w} }

// CreateParticle allocates a particle, or particle.InvalidID if the store
// is full.
func (f *Factory) CreateParticle(objType objmodel.ObjectType, position, velocity vecmath.Vec2, mass, radius float32, color objmodel.Color) particle.ID {
	return f.world.particles.Create(objType, position, velocity, mass, radius, color)
}

// DeleteParticle removes a particle by id. Returns false if id is unknown
// or already freed.
func (f *Factory) DeleteParticle(id particle.ID) bool {
	return f.world.particles.Delete(id)
}

// CreateDistanceConstraint links particles a and b with rest_length
// defaulting to their current separation, or constraint.InvalidID if the
// store is full.
func (f *Factory) CreateDistanceConstraint(a, b particle.ID, radius float32) constraint.ID {
	return f.world.distances.Create(f.world.particles, a, b, radius)
}

// DeleteDistanceConstraint removes a distance constraint by id. Returns
// false if id is unknown or already freed.
func (f *Factory) DeleteDistanceConstraint(id constraint.ID) bool {
	return f.world.distances.Delete(id)
}

// CreateAngularConstraint couples distance constraints dcA and dcB,
// freezing their current angle as rest angle. dcA and dcB must already be
// live and have had ComputeData run at least once (World.Step does this
// every tick; callers creating a constraint before the first Step must
// call distances.ComputeData themselves — see constraint.AngularStore.Create).
// Returns constraint.InvalidAngularID if the store is full.
func (f *Factory) CreateAngularConstraint(dcA, dcB constraint.ID) constraint.AngularID {
	return f.world.angulars.Create(f.world.distances, dcA, dcB)
}

// DeleteAngularConstraint removes an angular constraint by id. Returns
// false if id is unknown or already freed.
func (f *Factory) DeleteAngularConstraint(id constraint.AngularID) bool {
	return f.world.angulars.Delete(id)
}
