package spatial

import (
	"testing"

	"github.com/pthm-cable/impulse2d/particle"
	"github.com/pthm-cable/impulse2d/vecmath"
)

func TestCellRangeCoversAABB(t *testing.T) {
	g := New(100, 100, 10)
	minCol, maxCol, minRow, maxRow := g.CellRange(vecmath.Vec2{X: 25, Y: 25}, 3)
	if minCol != 2 || maxCol != 2 {
		t.Errorf("col range = [%d,%d], want [2,2]", minCol, maxCol)
	}
	if minRow != 2 || maxRow != 2 {
		t.Errorf("row range = [%d,%d], want [2,2]", minRow, maxRow)
	}
}

func TestInsertAndBucketRoundTrip(t *testing.T) {
	g := New(100, 100, 10)
	id := particle.ID(42)
	g.Insert(id, vecmath.Vec2{X: 15, Y: 25})

	col, row := g.Cell(15, 25)
	bucket := g.Bucket(col, row)
	if len(bucket) != 1 || bucket[0] != id {
		t.Fatalf("Bucket(%d,%d) = %v, want [%v]", col, row, bucket, id)
	}
}

func TestBucketOutOfBoundsReturnsNil(t *testing.T) {
	g := New(100, 100, 10)
	if b := g.Bucket(-1, 0); b != nil {
		t.Fatalf("Bucket(-1,0) = %v, want nil", b)
	}
	if b := g.Bucket(g.NumCols(), 0); b != nil {
		t.Fatalf("Bucket(numCols,0) = %v, want nil", b)
	}
}

func TestInsertAtPlacesIDInEveryCellOfAnAABB(t *testing.T) {
	g := New(100, 100, 10)
	id := particle.ID(7)
	minCol, maxCol, minRow, maxRow := g.CellRange(vecmath.Vec2{X: 20, Y: 20}, 6)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.InsertAt(id, col, row)
		}
	}
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			bucket := g.Bucket(col, row)
			if len(bucket) != 1 || bucket[0] != id {
				t.Fatalf("Bucket(%d,%d) = %v, want [%v]", col, row, bucket, id)
			}
		}
	}
}

func TestInsertOutOfBoundsIsDropped(t *testing.T) {
	g := New(100, 100, 10)
	g.Insert(particle.ID(1), vecmath.Vec2{X: -50, Y: -50})
	// Should not panic; no bucket should contain it since it's unreachable.
	for row := 0; row < g.NumRows(); row++ {
		for col := 0; col < g.NumCols(); col++ {
			for _, id := range g.Bucket(col, row) {
				if id == particle.ID(1) {
					t.Fatal("out-of-bounds insert ended up in a bucket")
				}
			}
		}
	}
}

func TestClearEmptiesAllBuckets(t *testing.T) {
	g := New(50, 50, 10)
	g.Insert(particle.ID(1), vecmath.Vec2{X: 5, Y: 5})
	g.Clear()
	for row := 0; row < g.NumRows(); row++ {
		for col := 0; col < g.NumCols(); col++ {
			if len(g.Bucket(col, row)) != 0 {
				t.Fatalf("bucket (%d,%d) not empty after Clear", col, row)
			}
		}
	}
}
