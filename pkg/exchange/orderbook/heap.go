package orderbook

import "container/heap"

// priceHeap tracks the set of occupied price levels on one side of a book.
// Bids use a max-heap (best bid on top), asks a min-heap. Manipulate through
// container/heap; Peek is O(1).
type priceHeap struct {
	prices []int64
	max    bool
}

func newPriceHeap(max bool) *priceHeap {
	h := &priceHeap{max: max}
	heap.Init(h)
	return h
}

func (h *priceHeap) Len() int { return len(h.prices) }

func (h *priceHeap) Less(i, j int) bool {
	if h.max {
		return h.prices[i] > h.prices[j]
	}
	return h.prices[i] < h.prices[j]
}

func (h *priceHeap) Swap(i, j int) { h.prices[i], h.prices[j] = h.prices[j], h.prices[i] }

func (h *priceHeap) Push(x interface{}) { h.prices = append(h.prices, x.(int64)) }

func (h *priceHeap) Pop() interface{} {
	old := h.prices
	n := len(old)
	x := old[n-1]
	h.prices = old[:n-1]
	return x
}

func (h *priceHeap) peek() (int64, bool) {
	if len(h.prices) == 0 {
		return 0, false
	}
	return h.prices[0], true
}

// remove drops one price level from the heap. Linear scan, but levels are few
// and removal only happens when a level empties.
func (h *priceHeap) remove(price int64) {
	for i, p := range h.prices {
		if p == price {
			heap.Remove(h, i)
			return
		}
	}
}

func (h *priceHeap) push(price int64) { heap.Push(h, price) }
