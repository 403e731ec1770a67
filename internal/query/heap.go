package query

import "container/heap"

// tieTolerance is the score difference below which two candidates are
// treated as equal, preserving insertion order (§4.5's top-k rule).
const tieTolerance = 0.1

// topKHeap is a bounded min-heap of candidates, keeping the k
// highest-scoring entries seen via push (§4.5: "min-heap of size k...
// O(n·log k)").
type topKHeap struct {
	k     int
	items []scoredCandidate
}

// scoredCandidate pairs a candidate with its insertion sequence, so
// ties within tolerance preserve the original order.
type scoredCandidate struct {
	candidate candidate
	seq       int
}

func newTopKHeap(k int) *topKHeap {
	return &topKHeap{k: k}
}

func (h *topKHeap) Len() int { return len(h.items) }
func (h *topKHeap) Less(i, j int) bool {
	diff := h.items[i].candidate.score - h.items[j].candidate.score
	if diff < -tieTolerance || diff > tieTolerance {
		return h.items[i].candidate.score < h.items[j].candidate.score
	}
	// within tie tolerance: the later-inserted item sorts "lower"
	// (evicted first) only once capacity forces a choice, preserving
	// insertion order among equals.
	return h.items[i].seq > h.items[j].seq
}
func (h *topKHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *topKHeap) Push(x any)    { h.items = append(h.items, x.(scoredCandidate)) }
func (h *topKHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// push considers c for inclusion in the top-k, in the order c was
// produced (seq is the running insertion counter).
func (h *topKHeap) push(c candidate, seq int) {
	entry := scoredCandidate{candidate: c, seq: seq}
	if h.k <= 0 {
		return
	}
	if h.Len() < h.k {
		heap.Push(h, entry)
		return
	}
	if h.Len() > 0 && c.score > h.items[0].candidate.score+tieTolerance {
		heap.Pop(h)
		heap.Push(h, entry)
	}
}

// drain returns the held candidates sorted by descending score
// (ties broken by insertion order).
func (h *topKHeap) drain() []candidate {
	sorted := make([]scoredCandidate, len(h.items))
	copy(sorted, h.items)

	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			a, b := sorted[j-1], sorted[j]
			if lessForDrain(a, b) {
				break
			}
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}

	out := make([]candidate, len(sorted))
	for i, sc := range sorted {
		out[i] = sc.candidate
	}
	return out
}

// topByScore returns the n highest-scoring candidates from all,
// sorted descending, via the same bounded min-heap as the final top-k
// extraction (used for both the "top rerankSize(k) for reranking" and
// "top k for output" steps of §4.6).
func topByScore(all []candidate, n int) []candidate {
	if n <= 0 {
		return nil
	}
	h := newTopKHeap(n)
	for i, c := range all {
		h.push(c, i)
	}
	return h.drain()
}

// lessForDrain reports whether a should sort before b in the final
// descending-by-score output, treating near-ties as equal and
// preserving insertion order between them.
func lessForDrain(a, b scoredCandidate) bool {
	diff := a.candidate.score - b.candidate.score
	if diff > tieTolerance {
		return true
	}
	if diff < -tieTolerance {
		return false
	}
	return a.seq < b.seq
}
