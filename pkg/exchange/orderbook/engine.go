package orderbook

// Engine is the crossing state machine for one Book. It holds no state of its
// own; Match executes atomically under the book's lock, so a match that has
// started always runs to completion before any other submission touches the
// same symbol.
type Engine struct {
	book *Book
}

func NewEngine(b *Book) *Engine { return &Engine{book: b} }

func (e *Engine) Book() *Book { return e.book }

// Match crosses incoming against the book and returns the resulting trades,
// oldest match first. An empty slice means no crossing occurred. The incoming
// order is never mutated.
func (e *Engine) Match(incoming *Order) []Trade {
	e.book.mu.Lock()
	defer e.book.mu.Unlock()

	if incoming.Type == Market {
		return e.matchMarket(incoming)
	}
	return e.matchLimit(incoming)
}

// matchMarket walks the opposite side taking best price until the incoming
// quantity is filled or the side is exhausted. Leftover quantity is discarded:
// market orders are immediate-or-cancel and never rest.
func (e *Engine) matchMarket(incoming *Order) []Trade {
	var trades []Trade
	remaining := incoming.Qty
	for remaining > 0 {
		price, maker, ok := e.top(opposite(incoming.Side))
		if !ok {
			break
		}
		fill := min(remaining, maker.Qty)
		trades = append(trades, e.cross(incoming, maker, fill, price))
		remaining -= fill
		e.consume(maker, fill, price)
	}
	return trades
}

// matchLimit walks the opposite side while the incoming limit crosses the
// resting price. The executed price is always the resting order's price:
// price-time priority rewards the earlier-resting side. Any unfilled
// remainder rests at the incoming limit price with a fresh arrival stamp.
func (e *Engine) matchLimit(incoming *Order) []Trade {
	var trades []Trade
	remaining := incoming.Qty
	for remaining > 0 {
		price, maker, ok := e.top(opposite(incoming.Side))
		if !ok || !crosses(incoming.Side, incoming.Price, price) {
			break
		}
		fill := min(remaining, maker.Qty)
		trades = append(trades, e.cross(incoming, maker, fill, price))
		remaining -= fill
		e.consume(maker, fill, price)
	}
	if remaining > 0 {
		e.book.rest(remainderOf(incoming, remaining))
	}
	return trades
}

// top returns the best price and head order on the given side.
func (e *Engine) top(side Side) (int64, *Order, bool) {
	b := e.book
	if side == Buy {
		price, ok := b.bidHeap.peek()
		if !ok {
			return 0, nil, false
		}
		return price, b.bids[price][0], true
	}
	price, ok := b.askHeap.peek()
	if !ok {
		return 0, nil, false
	}
	return price, b.asks[price][0], true
}

// consume removes fill quantity from the resting maker. A fully consumed
// maker leaves the book; a partial remainder is re-rested as a new order at
// the same price, losing its original time priority.
func (e *Engine) consume(maker *Order, fill, price int64) {
	e.book.dequeue(maker.Side, price)
	if rem := maker.Qty - fill; rem > 0 {
		e.book.rest(remainderOf(maker, rem))
	}
}

func (e *Engine) cross(incoming, maker *Order, fill, price int64) Trade {
	if incoming.Side == Buy {
		return newTrade(incoming.Symbol, fill, price, incoming.TraderID, maker.TraderID)
	}
	return newTrade(incoming.Symbol, fill, price, maker.TraderID, incoming.TraderID)
}

// remainderOf mints a fresh limit order for the unfilled part of o. The new
// order has its own id; its arrival stamp is set when it rests.
func remainderOf(o *Order, qty int64) *Order {
	return &Order{
		ID:       orderSeq.Add(1),
		TraderID: o.TraderID,
		Symbol:   o.Symbol,
		Side:     o.Side,
		Type:     Limit,
		Qty:      qty,
		Price:    o.Price,
	}
}

func opposite(s Side) Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// crosses reports whether an incoming limit at px is compatible with the best
// resting price on the opposite side.
func crosses(side Side, px, resting int64) bool {
	if side == Buy {
		return px >= resting
	}
	return px <= resting
}
