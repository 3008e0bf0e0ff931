package orderbook

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// ErrInvalidOrder marks orders rejected at construction. Nothing that fails
// validation ever reaches a book.
var ErrInvalidOrder = errors.New("invalid order")

type Side int8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

type OrderType int8

const (
	Limit OrderType = iota + 1
	Market
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	default:
		return "unknown"
	}
}

var (
	orderSeq atomic.Uint64
	tradeSeq atomic.Uint64
)

// Order is an immutable submission. Prices are quote-currency cents, quantities
// whole shares. Price is set if and only if Type == Limit.
type Order struct {
	ID       uint64
	TraderID string
	Symbol   string
	Side     Side
	Type     OrderType
	Qty      int64
	Price    int64 // limit price in cents; zero for market orders
	Arrival  int64 // nanosecond stamp for time priority
}

// NewLimitOrder validates and builds a limit order with a fresh id and
// arrival stamp.
func NewLimitOrder(traderID, symbol string, side Side, qty, price int64) (*Order, error) {
	if err := validate(traderID, symbol, side, qty); err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: limit price must be positive, got %d", ErrInvalidOrder, price)
	}
	return &Order{
		ID:       orderSeq.Add(1),
		TraderID: traderID,
		Symbol:   symbol,
		Side:     side,
		Type:     Limit,
		Qty:      qty,
		Price:    price,
		Arrival:  time.Now().UnixNano(),
	}, nil
}

// NewMarketOrder validates and builds a market order. Market orders carry no
// price and never rest: any quantity not immediately fillable is discarded.
func NewMarketOrder(traderID, symbol string, side Side, qty int64) (*Order, error) {
	if err := validate(traderID, symbol, side, qty); err != nil {
		return nil, err
	}
	return &Order{
		ID:       orderSeq.Add(1),
		TraderID: traderID,
		Symbol:   symbol,
		Side:     side,
		Type:     Market,
		Qty:      qty,
		Arrival:  time.Now().UnixNano(),
	}, nil
}

func validate(traderID, symbol string, side Side, qty int64) error {
	if traderID == "" {
		return fmt.Errorf("%w: trader id is empty", ErrInvalidOrder)
	}
	if symbol == "" {
		return fmt.Errorf("%w: symbol is empty", ErrInvalidOrder)
	}
	if side != Buy && side != Sell {
		return fmt.Errorf("%w: bad side %d", ErrInvalidOrder, side)
	}
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOrder, qty)
	}
	return nil
}

// Trade is a committed fill between two traders, produced only by an Engine
// crossing step. Ids are monotonic across the process.
type Trade struct {
	ID           uint64 `json:"id"`
	Symbol       string `json:"symbol"`
	Qty          int64  `json:"qty"`
	Price        int64  `json:"price"` // cents; always the resting order's price
	BuyTraderID  string `json:"buy_trader_id"`
	SellTraderID string `json:"sell_trader_id"`
	Timestamp    int64  `json:"ts"` // unix nanoseconds
}

func newTrade(symbol string, qty, price int64, buyer, seller string) Trade {
	return Trade{
		ID:           tradeSeq.Add(1),
		Symbol:       symbol,
		Qty:          qty,
		Price:        price,
		BuyTraderID:  buyer,
		SellTraderID: seller,
		Timestamp:    time.Now().UnixNano(),
	}
}

// Notional is the cash value exchanged: quantity times price, in cents.
func (t Trade) Notional() int64 { return t.Qty * t.Price }
