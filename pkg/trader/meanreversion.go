package trader

import (
	"math"
	"math/rand"

	"stocksim/pkg/exchange"
	"stocksim/pkg/exchange/orderbook"
)

// MeanReversionStrategy fades recent moves: after an uptick it offers slightly
// above the market, after a downtick it bids slightly below. Keeps per-symbol
// last-seen price memory.
type MeanReversionStrategy struct {
	lastSeen map[string]int64
}

func NewMeanReversionStrategy() *MeanReversionStrategy {
	return &MeanReversionStrategy{lastSeen: make(map[string]int64)}
}

func (s *MeanReversionStrategy) Generate(traderID string, symbols []string, lastPrice exchange.PriceLookup, rng *rand.Rand) []*orderbook.Order {
	var out []*orderbook.Order
	for _, sym := range symbols {
		p := lastPrice(sym)
		if p <= 0 {
			continue
		}
		prev, seen := s.lastSeen[sym]
		s.lastSeen[sym] = p
		if !seen {
			continue
		}

		diff := p - prev
		// Ignore moves inside a 0.05% dead band.
		if math.Abs(float64(diff)) < float64(prev)*0.0005 {
			continue
		}

		var o *orderbook.Order
		var err error
		if diff > 0 {
			// Price ticked up: sell 0.1% above.
			o, err = orderbook.NewLimitOrder(traderID, sym, orderbook.Sell, 5, offsetPrice(p, 0.001))
		} else {
			// Price ticked down: buy 0.1% below.
			o, err = orderbook.NewLimitOrder(traderID, sym, orderbook.Buy, 5, offsetPrice(p, -0.001))
		}
		if err != nil {
			continue
		}
		out = append(out, o)
		if len(out) >= 2 {
			break
		}
	}
	return out
}
