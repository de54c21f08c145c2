// Package similarity holds the value types of the image similarity search.
package similarity

import "sort"

// DefaultBatchSize is the maximum number of candidates sent in one comparator call.
const DefaultBatchSize = 5

// Candidate is an item eligible for comparison: it has a stored image reference.
type Candidate struct {
	ItemID   string
	ImageURL string
}

// Result pairs an item with its similarity to the query image.
// Similarity is whatever the comparator returned, nominally in [0, 1].
type Result struct {
	ItemID     string  `json:"id"`
	Similarity float64 `json:"similarity"`
}

// Eligible drops candidates without an image reference and repeated item IDs.
// The first occurrence of an ID wins; relative order is preserved.
func Eligible(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c.ItemID == "" || c.ImageURL == "" {
			continue
		}
		if _, dup := seen[c.ItemID]; dup {
			continue
		}
		seen[c.ItemID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Partition splits candidates into consecutive batches of at most size
// elements, preserving order. size <= 0 falls back to DefaultBatchSize.
func Partition(candidates []Candidate, size int) [][]Candidate {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if len(candidates) == 0 {
		return nil
	}

	batches := make([][]Candidate, 0, (len(candidates)+size-1)/size)
	for start := 0; start < len(candidates); start += size {
		end := min(start+size, len(candidates))
		batches = append(batches, candidates[start:end])
	}
	return batches
}

// SortDescending orders results by similarity, highest first.
// Equal scores keep their original relative order.
func SortDescending(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}
