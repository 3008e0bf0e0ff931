package trader

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"stocksim/pkg/exchange"
	"stocksim/pkg/exchange/orderbook"
)

// scriptedStrategy emits each queued batch once, then nothing.
type scriptedStrategy struct {
	batches [][]*orderbook.Order
}

func (s *scriptedStrategy) Generate(string, []string, exchange.PriceLookup, *rand.Rand) []*orderbook.Order {
	if len(s.batches) == 0 {
		return nil
	}
	next := s.batches[0]
	s.batches = s.batches[1:]
	return next
}

func newTraderMarket(t *testing.T) *exchange.Market {
	t.Helper()
	m := exchange.NewMarket(time.Hour, 1, zap.NewNop())
	t.Cleanup(m.Close)
	if err := m.ListCompany(exchange.Company{Name: "ACME", Ticker: "ACME", InitialPrice: 10000}); err != nil {
		t.Fatalf("list: %v", err)
	}
	return m
}

func TestRunStopsOnCancel(t *testing.T) {
	m := newTraderMarket(t)
	cfg := Config{SleepMin: 5 * time.Millisecond, SleepJitter: 5 * time.Millisecond}
	tr := New("T-001", &scriptedStrategy{}, m, 1_000_000, rand.New(rand.NewSource(1)), zap.NewNop(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trader did not stop within a sleep interval of cancellation")
	}
}

func TestCycleAppliesOnlyOwnFills(t *testing.T) {
	m := newTraderMarket(t)

	// A counterparty rests an ask the trader's buy will lift.
	rest, _ := orderbook.NewLimitOrder("OTHER", "ACME", orderbook.Sell, 5, 9000)
	if _, err := m.Submit(rest); err != nil {
		t.Fatalf("rest: %v", err)
	}

	buy, _ := orderbook.NewMarketOrder("T-001", "ACME", orderbook.Buy, 5)
	strat := &scriptedStrategy{batches: [][]*orderbook.Order{{buy}}}
	tr := New("T-001", strat, m, 1_000_000, rand.New(rand.NewSource(1)), zap.NewNop(), Config{})

	tr.cycle()

	if got := tr.Account().Position("ACME"); got != 5 {
		t.Errorf("position = %d, want 5", got)
	}
	if got := tr.Account().Cash(); got != 1_000_000-5*9000 {
		t.Errorf("cash = %d, want %d", got, 1_000_000-5*9000)
	}
}

func TestCycleSurvivesRejectedOrder(t *testing.T) {
	m := newTraderMarket(t)

	bad, _ := orderbook.NewLimitOrder("T-001", "NOPE", orderbook.Buy, 1, 100)
	good, _ := orderbook.NewLimitOrder("T-001", "ACME", orderbook.Buy, 1, 9000)
	strat := &scriptedStrategy{batches: [][]*orderbook.Order{{bad, good}}}
	tr := New("T-001", strat, m, 1_000_000, rand.New(rand.NewSource(1)), zap.NewNop(), Config{})

	tr.cycle()

	// The rejection did not stop the rest of the batch: the good order rests.
	book, _ := m.Book("ACME")
	bids := book.BidLevels()
	if len(bids) != 1 || bids[0].Price != 9000 || bids[0].Qty != 1 {
		t.Errorf("bid levels = %+v, want one 1@9000", bids)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.SleepMin != defaultSleepMin || cfg.SleepJitter != defaultSleepJitter || cfg.ReportEvery != defaultReportEvery {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Clock == nil {
		t.Error("clock default not applied")
	}

	keep := Config{SleepMin: time.Millisecond, SleepJitter: 2 * time.Millisecond, ReportEvery: 3 * time.Millisecond}.withDefaults()
	if keep.SleepMin != time.Millisecond || keep.SleepJitter != 2*time.Millisecond || keep.ReportEvery != 3*time.Millisecond {
		t.Errorf("explicit values overwritten: %+v", keep)
	}
}
