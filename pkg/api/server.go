// Package api exposes the simulator's read surface over HTTP: symbol and
// price snapshots, book depth, recent trades, per-account P&L, and a
// WebSocket push feed of committed trades. It is a passive consumer of the
// market; nothing here mutates core state.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"stocksim/pkg/exchange"
	"stocksim/pkg/exchange/orderbook"
)

// TradeHistory is the slice of the journal the API needs. A nil history
// disables the trades endpoint gracefully.
type TradeHistory interface {
	Recent(symbol string, limit int) ([]orderbook.Trade, error)
}

type Server struct {
	market   *exchange.Market
	accounts map[string]*exchange.Account // trader id -> account, fixed at bootstrap
	history  TradeHistory
	router   *mux.Router
	hub      *Hub
	log      *zap.Logger
}

func NewServer(market *exchange.Market, accounts map[string]*exchange.Account, history TradeHistory, log *zap.Logger) *Server {
	s := &Server{
		market:   market,
		accounts: accounts,
		history:  history,
		router:   mux.NewRouter(),
		hub:      NewHub(log),
		log:      log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/symbols", s.handleSymbols).Methods("GET")
	api.HandleFunc("/markets/{symbol}", s.handleMarket).Methods("GET")
	api.HandleFunc("/markets/{symbol}/book", s.handleBook).Methods("GET")
	api.HandleFunc("/markets/{symbol}/trades", s.handleTrades).Methods("GET")
	api.HandleFunc("/accounts/{id}", s.handleAccount).Methods("GET")

	s.router.HandleFunc("/ws", s.hub.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// TradeListener feeds the WebSocket hub. Register it with the market.
func (s *Server) TradeListener() exchange.TradeListener {
	return s.hub.BroadcastTrade
}

// Start runs the hub and serves HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: c.Handler(s.router),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("api server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SymbolsResponse{Symbols: s.market.Symbols()})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	book, ok := s.market.Book(symbol)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown symbol: " + symbol})
		return
	}

	bid, bidOK := book.BestBid()
	ask, askOK := book.BestAsk()
	writeJSON(w, http.StatusOK, MarketInfo{
		Symbol:    symbol,
		LastPrice: dollars(s.market.LastPrice(symbol)),
		BestBid:   optDollars(bid, bidOK),
		BestAsk:   optDollars(ask, askOK),
	})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	book, ok := s.market.Book(symbol)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown symbol: " + symbol})
		return
	}
	writeJSON(w, http.StatusOK, BookResponse{
		Symbol: symbol,
		Bids:   levelInfos(book.BidLevels()),
		Asks:   levelInfos(book.AskLevels()),
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "trade journal disabled"})
		return
	}
	symbol := mux.Vars(r)["symbol"]

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	trades, err := s.history.Recent(symbol, limit)
	if err != nil {
		s.log.Error("trade history query failed", zap.String("symbol", symbol), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "trade history unavailable"})
		return
	}

	out := make([]TradeInfo, len(trades))
	for i, t := range trades {
		out[i] = tradeInfo(t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	acc, ok := s.accounts[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown account: " + id})
		return
	}
	writeJSON(w, http.StatusOK, AccountInfo{
		Trader:    id,
		Cash:      dollars(acc.Cash()),
		NetLiq:    dollars(acc.NetLiq(s.market.LastPrice)),
		PnL:       dollars(acc.UnrealizedPnL(s.market.LastPrice)),
		Positions: acc.PositionsSnapshot(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
