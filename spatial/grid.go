// Package spatial provides the uniform-grid broadphase: a dense array of
// cell buckets that World rebuilds every tick and queries for candidate
// contact pairs. Grounded on the same cell-index/clear/bucket shape as a
// general-purpose gameplay spatial grid, generalized from per-tick entity
// lookups to stable particle.ID buckets.
package spatial

import (
	"math"

	"github.com/pthm-cable/impulse2d/internal/parallel"
	"github.com/pthm-cable/impulse2d/particle"
	"github.com/pthm-cable/impulse2d/vecmath"
)

// Grid is a uniform spatial hash over a fixed-size world rectangle.
type Grid struct {
	cellSize      float32
	numCols       int
	numRows       int
	width, height float32
	buckets       [][]particle.ID
}

// New builds a grid covering [0,width]x[0,height] with square cells of
// side cellSize.
func New(width, height, cellSize float32) *Grid {
	numCols := int(width/cellSize) + 1
	numRows := int(height/cellSize) + 1

	buckets := make([][]particle.ID, numCols*numRows)
	for i := range buckets {
		buckets[i] = make([]particle.ID, 0, 8)
	}

	return &Grid{
		cellSize: cellSize,
		numCols:  numCols,
		numRows:  numRows,
		width:    width,
		height:   height,
		buckets:  buckets,
	}
}

// Clear empties every bucket in parallel. Each bucket is reset
// independently, so no two workers ever touch the same slice.
func (g *Grid) Clear() {
	parallel.Range(len(g.buckets), func(i int) {
		g.buckets[i] = g.buckets[i][:0]
	})
}

// Cell returns the column/row containing world position (x, y). Columns
// and rows may be negative or beyond numCols/numRows if the position lies
// outside the grid's nominal world rectangle.
func (g *Grid) Cell(x, y float32) (col, row int) {
	col = int(math.Floor(float64(x / g.cellSize)))
	row = int(math.Floor(float64(y / g.cellSize)))
	return col, row
}

// Hash returns the flat bucket index for a column/row pair.
func (g *Grid) Hash(col, row int) int {
	return col + row*g.numCols
}

// CellRange returns the inclusive column/row bounds of the AABB
// [pos-r, pos+r].
func (g *Grid) CellRange(pos vecmath.Vec2, r float32) (minCol, maxCol, minRow, maxRow int) {
	minCol, minRow = g.Cell(pos.X-r, pos.Y-r)
	maxCol, maxRow = g.Cell(pos.X+r, pos.Y+r)
	return
}

// inBounds reports whether col/row address a real bucket.
func (g *Grid) inBounds(col, row int) bool {
	return col >= 0 && col < g.numCols && row >= 0 && row < g.numRows
}

// Bucket returns the particle ids in cell (col, row), or nil if the cell
// is outside the grid (e.g. a particle that has left the world box).
// Callers must not retain the returned slice across the next Clear/Insert.
func (g *Grid) Bucket(col, row int) []particle.ID {
	if !g.inBounds(col, row) {
		return nil
	}
	return g.buckets[g.Hash(col, row)]
}

// Insert places id in the single cell containing pos. Out-of-bounds
// positions are silently dropped.
func (g *Grid) Insert(id particle.ID, pos vecmath.Vec2) {
	col, row := g.Cell(pos.X, pos.Y)
	g.InsertAt(id, col, row)
}

// InsertAt places id directly into cell (col, row), silently dropping it
// if the cell lies outside the grid. Used to insert one id into every
// cell its AABB (via CellRange) overlaps, rather than a single point
// cell.
func (g *Grid) InsertAt(id particle.ID, col, row int) {
	if !g.inBounds(col, row) {
		return
	}
	h := g.Hash(col, row)
	g.buckets[h] = append(g.buckets[h], id)
}

// NumCols and NumRows expose the grid dimensions for callers that need to
// enumerate every bucket (World's broadphase query phase).
func (g *Grid) NumCols() int { return g.numCols }
func (g *Grid) NumRows() int { return g.numRows }
