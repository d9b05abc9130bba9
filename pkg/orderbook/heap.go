package orderbook

// entry is a heap element: a pointer into the shared order_map so that
// in-place status mutation (lazy cancellation, fills) is visible without
// rebuilding the heap.
type entry struct {
	order *Order
}

// buyHeap is a max-heap on (price DESC, created_at ASC, id ASC) — best bid
// on top, ties broken by earliest arrival then lexicographic order id for
// deterministic replay.
type buyHeap []entry

func (h buyHeap) Len() int { return len(h) }
func (h buyHeap) Less(i, j int) bool {
	a, b := h[i].order, h[j].order
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.ID < b.ID
}
func (h buyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *buyHeap) Push(x any)   { *h = append(*h, x.(entry)) }
func (h *buyHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// sellHeap is a min-heap on (price ASC, created_at ASC, id ASC) — best ask
// on top.
type sellHeap []entry

func (h sellHeap) Len() int { return len(h) }
func (h sellHeap) Less(i, j int) bool {
	a, b := h[i].order, h[j].order
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.ID < b.ID
}
func (h sellHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *sellHeap) Push(x any)   { *h = append(*h, x.(entry)) }
func (h *sellHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
