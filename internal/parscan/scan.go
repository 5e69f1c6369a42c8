// Package parscan turns the filtering and smoothing recursions into
// prefix scans of an associative operator, so a whole trajectory can be
// combined in logarithmic depth instead of a sequential sweep.
//
// The scan itself is generic and knows nothing about Gaussians; the
// associative elements live in element.go. Every combine reads two elements
// and writes a fresh one, so the rounds share no mutable state and need no
// locking.
package parscan

import (
	"runtime"
	"sync"
)

// Scan computes the inclusive prefix combination of elems under op, which
// must be associative. It runs ceil(log2 n) rounds of independent pairwise
// combines, each round fanned out across goroutines. The combine pattern
// depends only on len(elems), so results are deterministic.
func Scan[E any](elems []E, op func(left, right E) E) []E {
	n := len(elems)
	cur := make([]E, n)
	copy(cur, elems)
	if n < 2 {
		return cur
	}
	next := make([]E, n)
	for d := 1; d < n; d *= 2 {
		parallelFor(n, 8, func(start, end int) {
			for i := start; i < end; i++ {
				if i >= d {
					next[i] = op(cur[i-d], cur[i])
				} else {
					next[i] = cur[i]
				}
			}
		})
		cur, next = next, cur
	}
	return cur
}

// ScanReverse computes the inclusive suffix combination: out[i] combines
// elems[i..n-1] in order.
func ScanReverse[E any](elems []E, op func(left, right E) E) []E {
	n := len(elems)
	cur := make([]E, n)
	copy(cur, elems)
	if n < 2 {
		return cur
	}
	next := make([]E, n)
	for d := 1; d < n; d *= 2 {
		parallelFor(n, 8, func(start, end int) {
			for i := start; i < end; i++ {
				if i+d < n {
					next[i] = op(cur[i], cur[i+d])
				} else {
					next[i] = cur[i]
				}
			}
		})
		cur, next = next, cur
	}
	return cur
}

// ScanSequential is the reference left-to-right prefix scan, kept for
// correctness checks against the parallel rounds.
func ScanSequential[E any](elems []E, op func(left, right E) E) []E {
	out := make([]E, len(elems))
	for i, e := range elems {
		if i == 0 {
			out[i] = e
			continue
		}
		out[i] = op(out[i-1], e)
	}
	return out
}

// parallelFor splits [0, n) into chunks across the available CPUs.
// Ranges below minChunk are not worth a goroutine.
func parallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
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
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
