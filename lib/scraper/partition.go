package scraper

import "hoopscrape/lib/assert"

// Partition splits items into min(len(items), workerLimit) contiguous chunks.
// Every chunk but the last holds len(items)/workerCount items, the last one
// takes the remainder as well, so it can be larger than the others.
func Partition[T any](items []T, workerLimit int) [][]T {
	assert.Positive(workerLimit)
	if len(items) == 0 {
		return nil
	}

	workerCount := min(len(items), workerLimit)
	chunkSize := len(items) / workerCount

	chunks := make([][]T, workerCount)
	for i := 0; i < workerCount; i++ {
		start := chunkSize * i
		if i == workerCount-1 {
			chunks[i] = items[start:]
			continue
		}
		chunks[i] = items[start : start+chunkSize : start+chunkSize]
	}
	return chunks
}
