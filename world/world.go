// Package world is the orchestrator: it owns one of each store and runs
// the fixed per-tick pipeline (gravity, broadphase, compute, prune,
// warm-start, iterate, integrate) described in the package doc for each
// store it wires together.
package world

import (
	"log/slog"

	"github.com/pthm-cable/impulse2d/config"
	"github.com/pthm-cable/impulse2d/constraint"
	"github.com/pthm-cable/impulse2d/contact"
	"github.com/pthm-cable/impulse2d/gravity"
	"github.com/pthm-cable/impulse2d/internal/parallel"
	"github.com/pthm-cable/impulse2d/objmodel"
	"github.com/pthm-cable/impulse2d/particle"
	"github.com/pthm-cable/impulse2d/spatial"
	"github.com/pthm-cable/impulse2d/telemetry"
	"github.com/pthm-cable/impulse2d/vecmath"
)

// defaultGravityY, defaultNumIterations, defaultGridCellSize,
// defaultWorldWidth, defaultWorldHeight are the positional constructor's
// fallback tunables, matching config/defaults.yaml.
const (
	defaultGravityX      = 0
	defaultGravityY      = 98200
	defaultNumIterations = 10
	defaultGridCellSize  = 12
	defaultWorldWidth    = 1280
	defaultWorldHeight   = 720
)

// World owns the particle and constraint stores and runs the fixed
// simulation pipeline every Step.
type World struct {
	particles *particle.Store
	distances *constraint.DistanceStore
	angulars  *constraint.AngularStore
	contacts  *contact.Store
	grid      *spatial.Grid
	gravity   *gravity.Gravity

	Gravity       vecmath.Vec2
	NumIterations int

	log  *slog.Logger
	perf *telemetry.PerfCollector

	cellScratch []cellAssignment
	seen        map[uint64]struct{}
}

type cellAssignment struct {
	id                             particle.ID
	minCol, maxCol, minRow, maxRow int
}

// NewWorld is the canonical constructor named by the public interface:
// fixed capacities for each store, default gravity/iteration/grid tunables
// matching config/defaults.yaml. Use New to build from a config.Config
// instead.
func NewWorld(maxParticles, maxDistanceConstraints, maxAngularConstraints, maxContacts int) *World {
	return &World{
		particles: particle.New(maxParticles),
		distances: constraint.NewDistanceStore(maxDistanceConstraints),
		angulars:  constraint.NewAngularStore(maxAngularConstraints),
		contacts:  contact.New(maxContacts),
		grid:      spatial.New(defaultWorldWidth, defaultWorldHeight, defaultGridCellSize),
		gravity:   gravity.New(1),

		Gravity:       vecmath.Vec2{X: defaultGravityX, Y: defaultGravityY},
		NumIterations: defaultNumIterations,

		log: slog.Default(),
	}
}

// New builds a World from a loaded Config, applying its physics, world
// box, and capacity sections. Equivalent to NewWorld followed by setting
// Gravity/NumIterations/grid dimensions from cfg.
func New(cfg *config.Config) *World {
	w := &World{
		particles: particle.New(cfg.Capacities.MaxParticles),
		distances: constraint.NewDistanceStore(cfg.Capacities.MaxDistanceConstraints),
		angulars:  constraint.NewAngularStore(cfg.Capacities.MaxAngularConstraints),
		contacts:  contact.New(cfg.Capacities.MaxContacts),
		grid:      spatial.New(cfg.World.Width, cfg.World.Height, cfg.World.GridCellSize),
		gravity:   gravity.New(1),

		Gravity:       vecmath.Vec2{X: cfg.Physics.GravityX, Y: cfg.Physics.GravityY},
		NumIterations: cfg.Physics.NumIterations,

		log: slog.Default(),
	}
	return w
}

// SetLogger overrides the default slog.Logger used for perf reporting.
func (w *World) SetLogger(log *slog.Logger) { w.log = log }

// EnablePerf attaches a rolling-window PerfCollector over windowSize ticks.
// LogPerf logs the accumulated stats; perf collection is a no-op until
// this is called.
func (w *World) EnablePerf(windowSize int) { w.perf = telemetry.NewPerfCollector(windowSize) }

// LogPerf logs the current perf window via the World's logger. A no-op if
// EnablePerf was never called.
func (w *World) LogPerf() {
	if w.perf == nil {
		return
	}
	w.log.Info("perf", "stats", w.perf.Stats())
}

func (w *World) startPhase(phase string) {
	if w.perf != nil {
		w.perf.StartPhase(phase)
	}
}

// Step advances the simulation by dt seconds, running the fixed pipeline:
// gravity, broadphase build/query, ComputeData, prune, warm-start, N
// Gauss-Seidel iterations, integrate.
func (w *World) Step(dt float32) {
	if w.perf != nil {
		w.perf.StartTick()
	}
	invDt := float32(0)
	if dt > 0 {
		invDt = 1 / dt
	}

	ids := w.allParticles()

	w.startPhase(telemetry.PhaseGravity)
	w.applyGravity(ids, dt)

	w.startPhase(telemetry.PhaseBroadphaseBuild)
	w.buildBroadphase()

	w.startPhase(telemetry.PhaseBroadphaseQuery)
	w.queryBroadphase()

	w.startPhase(telemetry.PhaseComputeData)
	w.distances.ComputeData(w.particles, invDt)
	w.angulars.ComputeData(w.distances, invDt)
	w.contacts.ComputeData(w.particles, invDt)

	w.startPhase(telemetry.PhasePrune)
	w.contacts.Prune()

	w.startPhase(telemetry.PhaseWarmStart)
	w.distances.ApplyWarmStart(w.particles)
	w.angulars.ApplyWarmStart(w.distances, w.particles)
	w.contacts.ApplyWarmStart(w.particles)

	w.startPhase(telemetry.PhaseIterate)
	for i := 0; i < w.NumIterations; i++ {
		w.angulars.ApplyCorrectiveImpulse(w.distances, w.particles)
		w.distances.ApplyCorrectiveImpulse(w.particles)
		w.contacts.ApplyCorrectiveImpulse(w.particles)
	}

	w.startPhase(telemetry.PhaseIntegrate)
	w.particles.Step(dt)

	if w.perf != nil {
		w.perf.EndTick()
	}
}

// allParticles collects the stable id of every live particle, in dense
// order, for handing to Gravity.SolveSelf.
func (w *World) allParticles() []particle.ID {
	n := w.particles.Len()
	ids := make([]particle.ID, n)
	for i := 0; i < n; i++ {
		ids[i] = w.particles.IDAt(i)
	}
	return ids
}

// applyGravity runs two independent contributions into particle.Impulse:
// Gravity.SolveSelf's N-body pairwise self-attraction between particles
// (zero for a single particle), and World.Gravity applied directly as a
// uniform per-particle acceleration (the configured world gravity field,
// typically dominated by Gravity.Y in pixel-space sims). Static particles
// (InvMass==0) are skipped for the uniform term; SolveSelf already leaves
// their impulse untouched since it scales by InvMass internally.
func (w *World) applyGravity(ids []particle.ID, dt float32) {
	w.gravity.SolveSelf(w.particles, ids, dt)
	n := len(ids)
	parallel.Range(n, func(i int) {
		idx := w.particles.IndexOf(ids[i])
		if w.particles.InvMass[idx] == 0 {
			return
		}
		w.particles.Impulse[idx] = w.particles.Impulse[idx].Add(w.Gravity.Scale(dt))
	})
}

// buildBroadphase clears the grid, computes each live particle's AABB cell
// range in parallel into a scratch slice, then sequentially inserts the
// particle's id into every cell its AABB overlaps — the "parallel
// enumerate, sequential drain" split spec.md §4.7 step 3 calls for, which
// avoids per-bucket locking while still letting one particle land in
// several buckets.
func (w *World) buildBroadphase() {
	w.grid.Clear()

	n := w.particles.Len()
	if cap(w.cellScratch) < n {
		w.cellScratch = make([]cellAssignment, n)
	}
	w.cellScratch = w.cellScratch[:n]

	parallel.Range(n, func(i int) {
		id := w.particles.IDAt(i)
		pos := w.particles.Position[i]
		r := w.particles.InteractionRadius[i]
		minCol, maxCol, minRow, maxRow := w.grid.CellRange(pos, r)
		w.cellScratch[i] = cellAssignment{
			id:     id,
			minCol: minCol,
			maxCol: maxCol,
			minRow: minRow,
			maxRow: maxRow,
		}
	})

	for i := 0; i < n; i++ {
		a := w.cellScratch[i]
		for row := a.minRow; row <= a.maxRow; row++ {
			for col := a.minCol; col <= a.maxCol; col++ {
				w.grid.InsertAt(a.id, col, row)
			}
		}
	}
}

// queryBroadphase walks every bucket and, for each pair of particles
// sharing a bucket, asks the contact store to create (or refresh) a
// contact. Because buildBroadphase inserts a particle into every cell its
// AABB overlaps, the same pair can surface from more than one shared
// bucket; seen canonicalizes each pair via contact.Key and is consulted
// before calling contacts.Create so a pair is only ever passed to the
// narrowphase once per tick, matching spec.md §4.7 step 4. Sequential:
// bucket iteration, the seen set, and contact creation are not safe to run
// concurrently.
func (w *World) queryBroadphase() {
	if w.seen == nil {
		w.seen = make(map[uint64]struct{})
	} else {
		for k := range w.seen {
			delete(w.seen, k)
		}
	}

	for row := 0; row < w.grid.NumRows(); row++ {
		for col := 0; col < w.grid.NumCols(); col++ {
			bucket := w.grid.Bucket(col, row)
			if len(bucket) < 2 {
				continue
			}
			for i := 0; i < len(bucket); i++ {
				for j := i + 1; j < len(bucket); j++ {
					key := contact.Key(bucket[i], bucket[j])
					if _, ok := w.seen[key]; ok {
						continue
					}
					w.seen[key] = struct{}{}
					w.contacts.Create(w.particles, bucket[i], bucket[j])
				}
			}
		}
	}
}

// ParticlePositions returns the live particles' positions in dense order.
// Valid until the next mutating call.
func (w *World) ParticlePositions() []vecmath.Vec2 { return w.particles.Position[:w.particles.Len()] }

// ParticleColors returns the live particles' colors in dense order.
func (w *World) ParticleColors() []objmodel.Color { return w.particles.Color[:w.particles.Len()] }

// ParticleRadii returns the live particles' radii in dense order.
func (w *World) ParticleRadii() []float32 { return w.particles.Radius[:w.particles.Len()] }

// ParticlePositionByID returns the position of the particle with the
// given id, or the zero vector if id is invalid or stale.
func (w *World) ParticlePositionByID(id particle.ID) vecmath.Vec2 {
	return w.particles.PositionByID(id)
}

// NumParticles returns the number of live particles.
func (w *World) NumParticles() int { return w.particles.Len() }

// NumDistanceConstraints returns the number of live distance constraints.
func (w *World) NumDistanceConstraints() int { return w.distances.Len() }

// NumAngularConstraints returns the number of live angular constraints.
func (w *World) NumAngularConstraints() int { return w.angulars.Len() }

// NumContacts returns the number of live contacts.
func (w *World) NumContacts() int { return w.contacts.Len() }

// DistanceConstraintParticleAIDs returns the particle-A id of every live
// distance constraint, in dense order.
func (w *World) DistanceConstraintParticleAIDs() []particle.ID {
	return w.distances.ParticleA[:w.distances.Len()]
}

// DistanceConstraintParticleBIDs returns the particle-B id of every live
// distance constraint, in dense order.
func (w *World) DistanceConstraintParticleBIDs() []particle.ID {
	return w.distances.ParticleB[:w.distances.Len()]
}

// DistanceConstraintRadii returns the radius of every live distance
// constraint, in dense order.
func (w *World) DistanceConstraintRadii() []float32 {
	return w.distances.Radius[:w.distances.Len()]
}
