package exchange

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"stocksim/pkg/exchange/orderbook"
)

// TradeListener is invoked synchronously on the submitting caller's own
// goroutine for every committed trade, after the match has fully committed.
// A slow listener directly delays that trader's loop; listeners that do real
// work must dispatch it elsewhere.
type TradeListener func(orderbook.Trade)

// Market orchestrates the per-symbol Stock/Book/Engine triples, routes
// submissions, fans out trades to listeners, and owns the price process
// lifecycle. The registry mutex guards registration and lookup only; matching
// itself runs under the individual book's lock, so submissions to different
// symbols never serialize against each other.
type Market struct {
	log *zap.Logger
	rng *rand.Rand

	mu        sync.RWMutex
	stocks    map[string]*Stock
	books     map[string]*orderbook.Book
	engines   map[string]*orderbook.Engine
	listeners []TradeListener // copy-on-write snapshot

	tickInterval time.Duration
	cancel       context.CancelFunc
	done         chan struct{}
	started      bool
	closed       bool
}

// NewMarket creates an empty market. tickInterval drives the price process;
// seed makes a run reproducible.
func NewMarket(tickInterval time.Duration, seed int64, log *zap.Logger) *Market {
	return &Market{
		log:          log,
		rng:          rand.New(rand.NewSource(seed)),
		stocks:       make(map[string]*Stock),
		books:        make(map[string]*orderbook.Book),
		engines:      make(map[string]*orderbook.Engine),
		tickInterval: tickInterval,
	}
}

// ListCompany registers the Stock/Book/Engine triple for a new symbol.
// Idempotent: listing an already-registered ticker is a no-op.
func (m *Market) ListCompany(c Company) error {
	if c.Ticker == "" {
		return fmt.Errorf("listing: ticker is empty")
	}
	if c.InitialPrice <= 0 {
		return fmt.Errorf("listing %s: initial price must be positive, got %d", c.Ticker, c.InitialPrice)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMarketClosed
	}
	if _, ok := m.stocks[c.Ticker]; ok {
		return nil
	}

	book := orderbook.NewBook(c.Ticker)
	m.stocks[c.Ticker] = NewStock(c.Ticker, c.InitialPrice)
	m.books[c.Ticker] = book
	m.engines[c.Ticker] = orderbook.NewEngine(book)
	m.log.Info("company listed",
		zap.String("name", c.Name),
		zap.String("symbol", c.Ticker),
		zap.Int64("initial_price", c.InitialPrice))
	return nil
}

// Start launches the price process. Call once, after all intended listings.
func (m *Market) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMarketClosed
	}
	if m.started {
		return ErrMarketStarted
	}
	m.started = true

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	pricer := newPriceProcess(m.tickInterval, m.rng, m.log, m.stocksSnapshot)
	go func() {
		defer close(m.done)
		pricer.run(ctx)
	}()
	m.log.Info("market started", zap.Duration("tick_interval", m.tickInterval))
	return nil
}

// Submit routes an order to its symbol's engine and, only after the match has
// fully committed, notifies every registered listener once per trade in
// generation order before returning. Listeners that query book or price state
// therefore always observe the post-match book.
func (m *Market) Submit(o *orderbook.Order) ([]orderbook.Trade, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrMarketClosed
	}
	engine, ok := m.engines[o.Symbol]
	listeners := m.listeners
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, o.Symbol)
	}

	trades := engine.Match(o)
	for _, t := range trades {
		for _, fn := range listeners {
			fn(t)
		}
	}
	return trades, nil
}

// LastPrice returns the current mark price in cents, or 0 for an unknown
// symbol; callers are expected to consult Symbols first.
func (m *Market) LastPrice(symbol string) int64 {
	m.mu.RLock()
	s, ok := m.stocks[symbol]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return s.MarkPrice()
}

// Symbols returns the listed tickers, sorted.
func (m *Market) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	syms := make([]string, 0, len(m.stocks))
	for sym := range m.stocks {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// Book returns the order book for a symbol, for read-only snapshots.
func (m *Market) Book(symbol string) (*orderbook.Book, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[symbol]
	return b, ok
}

// AddTradeListener registers a callback for every trade produced by any
// subsequent submission. The listener slice is copy-on-write so fan-out
// iterates an immutable snapshot.
func (m *Market) AddTradeListener(fn TradeListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := make([]TradeListener, len(m.listeners), len(m.listeners)+1)
	copy(next, m.listeners)
	m.listeners = append(next, fn)
}

// Close stops the price process and marks the market terminal. It is safe to
// call more than once; the instance is not reusable afterwards.
func (m *Market) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	m.log.Info("market closed")
}

// stocksSnapshot returns the stocks in ticker order so price ticks iterate
// deterministically regardless of map order.
func (m *Market) stocksSnapshot() []*Stock {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stocks := make([]*Stock, 0, len(m.stocks))
	for _, s := range m.stocks {
		stocks = append(stocks, s)
	}
	sort.Slice(stocks, func(i, j int) bool { return stocks[i].ticker < stocks[j].ticker })
	return stocks
}
