package trader

import (
	"math"
	"math/rand"

	"stocksim/pkg/exchange"
	"stocksim/pkg/exchange/orderbook"
)

// RandomStrategy places small random limit orders around the current mark
// price. It creates background liquidity and occasional trades.
type RandomStrategy struct{}

func (RandomStrategy) Generate(traderID string, symbols []string, lastPrice exchange.PriceLookup, rng *rand.Rand) []*orderbook.Order {
	if len(symbols) == 0 {
		return nil
	}
	// Half the cycles do nothing.
	if rng.Float64() < 0.5 {
		return nil
	}

	sym := symbols[rng.Intn(len(symbols))]
	p := lastPrice(sym)
	if p <= 0 {
		return nil
	}

	qty := int64(1 + rng.Intn(10))
	px := offsetPrice(p, (rng.Float64()-0.5)*0.01) // +/-0.5% band
	side := orderbook.Buy
	if rng.Intn(2) == 0 {
		side = orderbook.Sell
	}

	o, err := orderbook.NewLimitOrder(traderID, sym, side, qty, px)
	if err != nil {
		return nil
	}
	return []*orderbook.Order{o}
}

// offsetPrice applies a fractional offset to a cent price, clamped to stay
// positive.
func offsetPrice(p int64, frac float64) int64 {
	px := int64(math.Round(float64(p) * (1 + frac)))
	if px < 1 {
		return 1
	}
	return px
}
