package exchange

import (
	"sync"

	"stocksim/pkg/exchange/orderbook"
)

// PriceLookup resolves a symbol to its current mark price in cents.
// Market.LastPrice satisfies it.
type PriceLookup func(symbol string) int64

// Account is one trader's cash and position ledger. Only the owning trader's
// loop applies fills, but reporting tasks read concurrently, so every
// operation takes the mutex and readers always observe a consistent snapshot.
type Account struct {
	mu          sync.Mutex
	initialCash int64
	cash        int64
	positions   map[string]int64 // symbol -> signed share count
}

func NewAccount(startingCash int64) *Account {
	return &Account{
		initialCash: startingCash,
		cash:        startingCash,
		positions:   make(map[string]int64),
	}
}

// ApplyFill settles one side of a trade. The buyer pays qty*price and gains
// the position; the seller receives qty*price and loses it. A trade that
// names neither side is a no-op, so callers may feed the whole trade stream.
func (a *Account) ApplyFill(t orderbook.Trade, traderID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch traderID {
	case t.BuyTraderID:
		a.cash -= t.Notional()
		a.positions[t.Symbol] += t.Qty
	case t.SellTraderID:
		a.cash += t.Notional()
		a.positions[t.Symbol] -= t.Qty
	}
}

func (a *Account) Cash() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

func (a *Account) Position(symbol string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[symbol]
}

// PositionsSnapshot returns an independent copy of the position map.
func (a *Account) PositionsSnapshot() map[string]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := make(map[string]int64, len(a.positions))
	for sym, qty := range a.positions {
		snap[sym] = qty
	}
	return snap
}

// NetLiq is cash plus the mark-to-market value of all held positions.
func (a *Account) NetLiq(lastPrice PriceLookup) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	value := a.cash
	for sym, qty := range a.positions {
		value += qty * lastPrice(sym)
	}
	return value
}

// UnrealizedPnL is net liquidation value relative to starting cash.
func (a *Account) UnrealizedPnL(lastPrice PriceLookup) int64 {
	return a.NetLiq(lastPrice) - a.initialCash
}
