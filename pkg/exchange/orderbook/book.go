package orderbook

import (
	"sort"
	"sync"
	"time"
)

// Level is an aggregated view of one price level, used for depth snapshots.
type Level struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

// Book holds the resting orders for one symbol: two sides, each a price heap
// over FIFO queues. At equal price, earlier-rested orders sit closer to the
// queue head and fill first.
//
// One mutex guards everything; every mutation happens inside a single
// lock-scoped call, so two submissions to the same symbol never interleave
// partial crossing steps. Callers never hold two books' locks at once.
type Book struct {
	mu     sync.Mutex
	symbol string

	bidHeap *priceHeap
	askHeap *priceHeap

	bids map[int64][]*Order // price -> FIFO queue
	asks map[int64][]*Order
}

func NewBook(symbol string) *Book {
	return &Book{
		symbol:  symbol,
		bidHeap: newPriceHeap(true),
		askHeap: newPriceHeap(false),
		bids:    make(map[int64][]*Order),
		asks:    make(map[int64][]*Order),
	}
}

func (b *Book) Symbol() string { return b.symbol }

// BestBid returns the top-of-book bid price, or false if the side is empty.
func (b *Book) BestBid() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bidHeap.peek()
}

// BestAsk returns the top-of-book ask price, or false if the side is empty.
func (b *Book) BestAsk() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.askHeap.peek()
}

// rest parks o on its own side with a fresh arrival stamp. Time priority
// begins at the moment of resting, not at original submission, so a remainder
// re-rested after a partial fill joins the back of its price level.
// Lock must be held.
func (b *Book) rest(o *Order) {
	o.Arrival = time.Now().UnixNano()
	if o.Side == Buy {
		if len(b.bids[o.Price]) == 0 {
			b.bidHeap.push(o.Price)
		}
		b.bids[o.Price] = append(b.bids[o.Price], o)
	} else {
		if len(b.asks[o.Price]) == 0 {
			b.askHeap.push(o.Price)
		}
		b.asks[o.Price] = append(b.asks[o.Price], o)
	}
}

// dequeue removes the head order at price on the given side, dropping the
// level from heap and map when it empties. Lock must be held.
func (b *Book) dequeue(side Side, price int64) {
	if side == Buy {
		b.bids[price] = b.bids[price][1:]
		if len(b.bids[price]) == 0 {
			delete(b.bids, price)
			b.bidHeap.remove(price)
		}
	} else {
		b.asks[price] = b.asks[price][1:]
		if len(b.asks[price]) == 0 {
			delete(b.asks, price)
			b.askHeap.remove(price)
		}
	}
}

// BidLevels returns aggregated bid depth, best (highest) price first.
func (b *Book) BidLevels() []Level {
	b.mu.Lock()
	defer b.mu.Unlock()
	levels := aggregate(b.bids)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
	return levels
}

// AskLevels returns aggregated ask depth, best (lowest) price first.
func (b *Book) AskLevels() []Level {
	b.mu.Lock()
	defer b.mu.Unlock()
	levels := aggregate(b.asks)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	return levels
}

func aggregate(side map[int64][]*Order) []Level {
	levels := make([]Level, 0, len(side))
	for price, orders := range side {
		if len(orders) == 0 {
			continue
		}
		var total int64
		for _, o := range orders {
			total += o.Qty
		}
		levels = append(levels, Level{Price: price, Qty: total})
	}
	return levels
}
