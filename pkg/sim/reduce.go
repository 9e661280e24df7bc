package sim

import "sync"

// reduce sums buf[0:n] in place with an iterative strided tree reduction.
// Each pass sums branch elements spaced interval apart into the first slot
// and zeroes the slots it consumed; the interval grows by the branching
// factor until it covers the buffer. Lanes within a pass are independent, but
// a pass may only start once the previous one has completed. The total ends
// up at index 0; the buffer is consumed.
func (e *Engine) reduce(buf []float64, n int) float64 {
	if n == 0 {
		return 0
	}
	for interval := 1; interval < n; interval *= e.branch {
		stride := interval * e.branch
		lanes := (n + stride - 1) / stride
		e.parallelFor(lanes, func(lo, hi int) {
			for lane := lo; lane < hi; lane++ {
				base := lane * stride
				sum := buf[base]
				for k := 1; k < e.branch; k++ {
					idx := base + k*interval
					if idx >= n {
						break
					}
					sum += buf[idx]
					buf[idx] = 0
				}
				buf[base] = sum
			}
		})
	}
	return buf[0]
}

// parallelFor runs fn over the half-open ranges of a partition of [0, n).
// Small inputs run inline; larger ones fan out across the configured number
// of workers. It returns only once every chunk has finished, so results
// written by fn are visible to the caller.
func (e *Engine) parallelFor(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if n < e.parallelMin || e.workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + e.workers - 1) / e.workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
