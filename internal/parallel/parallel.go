// Package parallel provides the one chunked-goroutine fan-out used by every
// "parallel over [0,N)" phase in the engine: particle integration,
// ComputeData on the three constraint/contact stores, and the gravity
// map/reduce. Each worker only ever touches the indices in its own chunk,
// so callers get race-free parallelism as long as their per-index work
// writes only to that index (and, for gravity, a private scratch slot).
//
// Grounded on the runtime.NumCPU + sync.WaitGroup chunked-worker pattern
// used for N-body force accumulation in this corpus's physics examples,
// pulled out into one reusable helper instead of being re-implemented at
// every call site.
package parallel

import (
	"runtime"
	"sync"
)

// minChunk is the smallest per-worker slice worth spawning a goroutine
// for; below this, Range runs sequentially in the calling goroutine.
const minChunk = 256

// Range calls fn(i) for every i in [0,n), distributing the range across
// runtime.NumCPU() workers. fn must only write state owned by index i.
func Range(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if n < minChunk {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			wg.Done()
			continue
		}
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
