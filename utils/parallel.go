package utils

import (
	"runtime"
	"sync"
)

// ParallelRange splits [0, n) into contiguous chunks and runs fn on each.
// Below minParallel items, or on a single core, fn runs once on the caller.
// fn must only write to positions inside its own chunk.
func ParallelRange(n, minParallel int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	numWorkers := runtime.GOMAXPROCS(0)
	if n < minParallel || numWorkers <= 1 {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	perWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * perWorker
		end := start + perWorker
		if end > n {
			end = n
		}
		if start >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

// ParallelChunks runs fn over fixed-size chunks of [0, n), at most
// GOMAXPROCS at a time, and returns the first error. Chunk boundaries do not
// depend on the core count, so per-chunk state (such as a derived random
// stream) gives the same result on any machine.
func ParallelChunks(n, chunkSize int, fn func(chunk, start, end int) error) error {
	if n <= 0 {
		return nil
	}
	chunks := (n + chunkSize - 1) / chunkSize
	errs := make([]error, chunks)

	ParallelRange(chunks, 2, func(first, last int) {
		for c := first; c < last; c++ {
			start := c * chunkSize
			end := start + chunkSize
			if end > n {
				end = n
			}
			errs[c] = fn(c, start, end)
		}
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
