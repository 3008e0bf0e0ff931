package exchange

import "sync/atomic"

// Company is the listing descriptor handed in by bootstrap.
type Company struct {
	Name             string
	Ticker           string
	InitialPrice     int64   // cents
	AnnualVolatility float64 // reserved for a richer price model; unused by the tick walk
}

// Stock holds the current mark price for one symbol. The cell is written only
// by the price process and read by anyone; a single atomic slot is enough
// because the value is advisory telemetry, never read inside a matching
// critical section.
type Stock struct {
	ticker    string
	markPrice atomic.Int64 // cents
}

func NewStock(ticker string, initialPrice int64) *Stock {
	s := &Stock{ticker: ticker}
	s.markPrice.Store(initialPrice)
	return s
}

func (s *Stock) Ticker() string { return s.ticker }

func (s *Stock) MarkPrice() int64 { return s.markPrice.Load() }

func (s *Stock) SetMarkPrice(p int64) { s.markPrice.Store(p) }
