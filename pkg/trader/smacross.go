package trader

import (
	"math/rand"

	"github.com/markcheno/go-talib"

	"stocksim/pkg/exchange"
	"stocksim/pkg/exchange/orderbook"
)

// SMACrossStrategy trades moving-average crossovers on one symbol: a golden
// cross (short SMA rising through the long SMA) buys at market, a dead cross
// sells. Price history is private per-instance memory fed from the mark price
// each cycle.
type SMACrossStrategy struct {
	symbol      string
	shortPeriod int
	longPeriod  int
	orderQty    int64

	history []float64
}

func NewSMACrossStrategy(symbol string, shortPeriod, longPeriod int, orderQty int64) *SMACrossStrategy {
	if shortPeriod >= longPeriod {
		panic("trader: SMA short period must be less than long period")
	}
	return &SMACrossStrategy{
		symbol:      symbol,
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		orderQty:    orderQty,
	}
}

func (s *SMACrossStrategy) Generate(traderID string, symbols []string, lastPrice exchange.PriceLookup, rng *rand.Rand) []*orderbook.Order {
	p := lastPrice(s.symbol)
	if p <= 0 {
		return nil
	}

	s.history = append(s.history, float64(p))
	// Bound the window: talib only needs longPeriod+1 points for a cross.
	if limit := s.longPeriod * 2; len(s.history) > limit {
		s.history = s.history[len(s.history)-limit:]
	}
	if len(s.history) <= s.longPeriod {
		return nil
	}

	short := talib.Sma(s.history, s.shortPeriod)
	long := talib.Sma(s.history, s.longPeriod)
	n := len(s.history)
	prevShort, currShort := short[n-2], short[n-1]
	prevLong, currLong := long[n-2], long[n-1]

	var side orderbook.Side
	switch {
	case prevShort <= prevLong && currShort > currLong:
		side = orderbook.Buy
	case prevShort >= prevLong && currShort < currLong:
		side = orderbook.Sell
	default:
		return nil
	}

	o, err := orderbook.NewMarketOrder(traderID, s.symbol, side, s.orderQty)
	if err != nil {
		return nil
	}
	return []*orderbook.Order{o}
}
