package api

import (
	"time"

	"github.com/shopspring/decimal"

	"stocksim/pkg/exchange/orderbook"
)

// Wire DTOs. Internal prices are int64 cents; the API renders them as decimal
// dollar amounts.

type SymbolsResponse struct {
	Symbols []string `json:"symbols"`
}

type MarketInfo struct {
	Symbol    string           `json:"symbol"`
	LastPrice decimal.Decimal  `json:"last_price"`
	BestBid   *decimal.Decimal `json:"best_bid,omitempty"`
	BestAsk   *decimal.Decimal `json:"best_ask,omitempty"`
}

type LevelInfo struct {
	Price decimal.Decimal `json:"price"`
	Qty   int64           `json:"qty"`
}

type BookResponse struct {
	Symbol string      `json:"symbol"`
	Bids   []LevelInfo `json:"bids"`
	Asks   []LevelInfo `json:"asks"`
}

type TradeInfo struct {
	ID     uint64          `json:"id"`
	Symbol string          `json:"symbol"`
	Qty    int64           `json:"qty"`
	Price  decimal.Decimal `json:"price"`
	Buyer  string          `json:"buyer"`
	Seller string          `json:"seller"`
	Time   string          `json:"time"`
}

type AccountInfo struct {
	Trader    string           `json:"trader"`
	Cash      decimal.Decimal  `json:"cash"`
	NetLiq    decimal.Decimal  `json:"net_liq"`
	PnL       decimal.Decimal  `json:"pnl"`
	Positions map[string]int64 `json:"positions"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// dollars converts cents to a two-decimal dollar amount.
func dollars(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func optDollars(cents int64, ok bool) *decimal.Decimal {
	if !ok {
		return nil
	}
	d := dollars(cents)
	return &d
}

func tradeInfo(t orderbook.Trade) TradeInfo {
	return TradeInfo{
		ID:     t.ID,
		Symbol: t.Symbol,
		Qty:    t.Qty,
		Price:  dollars(t.Price),
		Buyer:  t.BuyTraderID,
		Seller: t.SellTraderID,
		Time:   time.Unix(0, t.Timestamp).UTC().Format(time.RFC3339Nano),
	}
}

func levelInfos(levels []orderbook.Level) []LevelInfo {
	out := make([]LevelInfo, len(levels))
	for i, l := range levels {
		out[i] = LevelInfo{Price: dollars(l.Price), Qty: l.Qty}
	}
	return out
}
