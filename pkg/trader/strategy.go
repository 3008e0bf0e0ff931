package trader

import (
	"math/rand"

	"stocksim/pkg/exchange"
	"stocksim/pkg/exchange/orderbook"
)

// Strategy proposes zero or more orders for one trading cycle. Implementations
// must not block and must not mutate shared state; the only state they may
// keep is private per-instance memory such as last observed prices. The rng
// belongs to the calling trader and is not safe for use outside the call.
type Strategy interface {
	Generate(traderID string, symbols []string, lastPrice exchange.PriceLookup, rng *rand.Rand) []*orderbook.Order
}
