package orderbook

import "testing"

func mustLimit(t *testing.T, trader, symbol string, side Side, qty, price int64) *Order {
	t.Helper()
	o, err := NewLimitOrder(trader, symbol, side, qty, price)
	if err != nil {
		t.Fatalf("limit order: %v", err)
	}
	return o
}

func mustMarket(t *testing.T, trader, symbol string, side Side, qty int64) *Order {
	t.Helper()
	o, err := NewMarketOrder(trader, symbol, side, qty)
	if err != nil {
		t.Fatalf("market order: %v", err)
	}
	return o
}

func sideQty(levels []Level) int64 {
	var total int64
	for _, l := range levels {
		total += l.Qty
	}
	return total
}

// Empty book: limit buy rests without trading, matching sell crosses for the
// full size, and the book is empty afterwards.
func TestRestThenCross(t *testing.T) {
	book := NewBook("ACME")
	engine := NewEngine(book)

	trades := engine.Match(mustLimit(t, "A", "ACME", Buy, 10, 10000))
	if len(trades) != 0 {
		t.Fatalf("expected no trades on empty book, got %d", len(trades))
	}
	if bid, ok := book.BestBid(); !ok || bid != 10000 {
		t.Fatalf("best bid = %d,%v, want 10000,true", bid, ok)
	}

	trades = engine.Match(mustLimit(t, "B", "ACME", Sell, 10, 10000))
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.Qty != 10 || tr.Price != 10000 || tr.BuyTraderID != "A" || tr.SellTraderID != "B" {
		t.Errorf("trade = %+v, want qty=10 price=10000 buyer=A seller=B", tr)
	}

	if _, ok := book.BestBid(); ok {
		t.Error("bid side not empty after full cross")
	}
	if _, ok := book.BestAsk(); ok {
		t.Error("ask side not empty after full cross")
	}
}

// Market buy walks ask levels best-price-first and leaves the partial
// remainder resting.
func TestMarketBuyWalksLevels(t *testing.T) {
	book := NewBook("ACME")
	engine := NewEngine(book)

	engine.Match(mustLimit(t, "C", "ACME", Sell, 5, 5000))
	engine.Match(mustLimit(t, "D", "ACME", Sell, 5, 5100))

	trades := engine.Match(mustMarket(t, "E", "ACME", Buy, 8))
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Qty != 5 || trades[0].Price != 5000 || trades[0].SellTraderID != "C" || trades[0].BuyTraderID != "E" {
		t.Errorf("first trade = %+v, want 5@5000 E/C", trades[0])
	}
	if trades[1].Qty != 3 || trades[1].Price != 5100 || trades[1].SellTraderID != "D" || trades[1].BuyTraderID != "E" {
		t.Errorf("second trade = %+v, want 3@5100 E/D", trades[1])
	}

	asks := book.AskLevels()
	if len(asks) != 1 || asks[0].Price != 5100 || asks[0].Qty != 2 {
		t.Errorf("ask side = %+v, want one level 2@5100", asks)
	}
}

// At equal price the earlier-rested order fills first.
func TestPriceTimePriority(t *testing.T) {
	book := NewBook("ACME")
	engine := NewEngine(book)

	engine.Match(mustLimit(t, "first", "ACME", Sell, 5, 5000))
	engine.Match(mustLimit(t, "second", "ACME", Sell, 5, 5000))

	trades := engine.Match(mustMarket(t, "taker", "ACME", Buy, 5))
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].SellTraderID != "first" {
		t.Errorf("filled %s first, want the earlier-rested order", trades[0].SellTraderID)
	}
}

// A limit buy crosses only resting asks at or below its limit, and always
// executes at the resting price.
func TestLimitCrossingCondition(t *testing.T) {
	book := NewBook("ACME")
	engine := NewEngine(book)

	engine.Match(mustLimit(t, "M", "ACME", Sell, 5, 5000))
	engine.Match(mustLimit(t, "M", "ACME", Sell, 5, 5200))

	// Buy limit 5100 crosses the 5000 ask only, at 5000.
	trades := engine.Match(mustLimit(t, "T", "ACME", Buy, 10, 5100))
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].Price != 5000 {
		t.Errorf("executed at %d, want resting price 5000", trades[0].Price)
	}
	if trades[0].Qty != 5 {
		t.Errorf("qty = %d, want 5", trades[0].Qty)
	}

	// Remainder rests at the incoming limit price.
	if bid, ok := book.BestBid(); !ok || bid != 5100 {
		t.Errorf("best bid = %d,%v, want 5100,true", bid, ok)
	}
	if ask, ok := book.BestAsk(); !ok || ask != 5200 {
		t.Errorf("best ask = %d,%v, want 5200,true", ask, ok)
	}
}

func TestNonCrossingLimitRests(t *testing.T) {
	book := NewBook("ACME")
	engine := NewEngine(book)

	engine.Match(mustLimit(t, "M", "ACME", Sell, 5, 5000))
	trades := engine.Match(mustLimit(t, "T", "ACME", Buy, 5, 4900))
	if len(trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(trades))
	}
	if bid, ok := book.BestBid(); !ok || bid != 4900 {
		t.Errorf("best bid = %d,%v, want 4900,true", bid, ok)
	}
}

// Market orders never rest: unfilled remainder is discarded.
func TestMarketOrderNeverRests(t *testing.T) {
	book := NewBook("ACME")
	engine := NewEngine(book)

	trades := engine.Match(mustMarket(t, "T", "ACME", Buy, 10))
	if len(trades) != 0 {
		t.Fatalf("expected no trades on empty book, got %d", len(trades))
	}
	if len(book.BidLevels()) != 0 || len(book.AskLevels()) != 0 {
		t.Error("market order left state in the book")
	}

	engine.Match(mustLimit(t, "M", "ACME", Sell, 3, 5000))
	trades = engine.Match(mustMarket(t, "T", "ACME", Buy, 10))
	if len(trades) != 1 || trades[0].Qty != 3 {
		t.Fatalf("trades = %+v, want single fill of 3", trades)
	}
	if len(book.BidLevels()) != 0 {
		t.Error("unfilled market remainder rested on the bid side")
	}
}

// For any incoming order: matched + rested + discarded == original quantity.
func TestQuantityConservation(t *testing.T) {
	book := NewBook("ACME")
	engine := NewEngine(book)

	engine.Match(mustLimit(t, "M", "ACME", Sell, 4, 5000))
	engine.Match(mustLimit(t, "M", "ACME", Sell, 4, 5050))

	incoming := mustLimit(t, "T", "ACME", Buy, 10, 5050)
	trades := engine.Match(incoming)

	var matched int64
	for _, tr := range trades {
		matched += tr.Qty
	}
	rested := sideQty(book.BidLevels())
	if matched+rested != incoming.Qty {
		t.Errorf("matched %d + rested %d != original %d", matched, rested, incoming.Qty)
	}
	if matched != 8 || rested != 2 {
		t.Errorf("matched=%d rested=%d, want 8 and 2", matched, rested)
	}
}

// A partially consumed resting order is reinserted behind orders that were at
// the same price: the remainder loses its original time priority.
func TestPartialFillRemainderLosesPriority(t *testing.T) {
	book := NewBook("ACME")
	engine := NewEngine(book)

	engine.Match(mustLimit(t, "early", "ACME", Sell, 10, 5000))
	engine.Match(mustLimit(t, "late", "ACME", Sell, 5, 5000))

	// Partially consume "early"; its 7 remaining shares re-rest at the back.
	engine.Match(mustMarket(t, "taker", "ACME", Buy, 3))

	trades := engine.Match(mustMarket(t, "taker", "ACME", Buy, 5))
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].SellTraderID != "late" {
		t.Errorf("filled %s, want the undisturbed order to be ahead of the reinserted remainder", trades[0].SellTraderID)
	}
	if qty := sideQty(book.AskLevels()); qty != 7 {
		t.Errorf("resting ask qty = %d, want 7", qty)
	}
}

// The incoming order value is not mutated by matching.
func TestIncomingOrderImmutable(t *testing.T) {
	book := NewBook("ACME")
	engine := NewEngine(book)

	engine.Match(mustLimit(t, "M", "ACME", Sell, 5, 5000))
	incoming := mustLimit(t, "T", "ACME", Buy, 8, 5000)
	engine.Match(incoming)

	if incoming.Qty != 8 {
		t.Errorf("incoming order quantity mutated to %d", incoming.Qty)
	}
}

func TestTradeIDsMonotonicAcrossMatches(t *testing.T) {
	book := NewBook("ACME")
	engine := NewEngine(book)

	engine.Match(mustLimit(t, "A", "ACME", Sell, 1, 5000))
	first := engine.Match(mustMarket(t, "B", "ACME", Buy, 1))
	engine.Match(mustLimit(t, "A", "ACME", Sell, 1, 5000))
	second := engine.Match(mustMarket(t, "B", "ACME", Buy, 1))

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one trade per match")
	}
	if second[0].ID <= first[0].ID {
		t.Errorf("trade ids not monotonic: %d then %d", first[0].ID, second[0].ID)
	}
}
