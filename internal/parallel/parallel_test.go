package parallel

import (
	"sync/atomic"
	"testing"
)

func TestRangeVisitsEveryIndexExactlyOnce(t *testing.T) {
	const n = 10000
	var counts [n]int32

	Range(n, func(i int) {
		atomic.AddInt32(&counts[i], 1)
	})

	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, c)
		}
	}
}

func TestRangeSmallN(t *testing.T) {
	var sum int32
	Range(5, func(i int) {
		atomic.AddInt32(&sum, int32(i))
	})
	if sum != 0+1+2+3+4 {
		t.Fatalf("sum = %d, want 10", sum)
	}
}

func TestRangeZero(t *testing.T) {
	called := false
	Range(0, func(i int) { called = true })
	if called {
		t.Fatal("fn should not be called for n=0")
	}
}
