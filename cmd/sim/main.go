package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"stocksim/params"
	"stocksim/pkg/api"
	"stocksim/pkg/exchange"
	"stocksim/pkg/feed"
	"stocksim/pkg/journal"
	"stocksim/pkg/trader"
	"stocksim/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	logger, err := buildLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Market ----
	market := exchange.NewMarket(cfg.Market.TickInterval, cfg.Market.Seed, logger)
	for _, c := range cfg.Market.Listings {
		if err := market.ListCompany(c); err != nil {
			logger.Fatal("listing failed", zap.String("ticker", c.Ticker), zap.Error(err))
		}
	}
	defer market.Close()

	// ---- Trade listeners (journal, kafka, websocket feed) ----
	var history api.TradeHistory
	if cfg.Journal.Path != "" {
		jnl, err := journal.Open(cfg.Journal.Path, logger)
		if err != nil {
			logger.Fatal("journal open failed", zap.Error(err))
		}
		defer jnl.Close()
		market.AddTradeListener(jnl.Listener())
		history = jnl
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := feed.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer pub.Close()
		market.AddTradeListener(pub.Listener())
		logger.Info("kafka feed enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	// ---- Traders ----
	seeder := rand.New(rand.NewSource(cfg.Market.Seed))
	symbols := market.Symbols()
	traders := make([]*trader.Trader, cfg.Trader.Count)
	accounts := make(map[string]*exchange.Account, cfg.Trader.Count)
	for i := range traders {
		id := fmt.Sprintf("T-%03d", i+1)
		t := trader.New(id, pickStrategy(i, symbols), market, cfg.Trader.StartingCash,
			rand.New(rand.NewSource(seeder.Int63())), logger, trader.Config{
				SleepMin:    cfg.Trader.SleepMin,
				SleepJitter: cfg.Trader.SleepJitter,
				ReportEvery: cfg.Trader.ReportEvery,
			})
		traders[i] = t
		accounts[id] = t.Account()
	}

	// ---- API ----
	server := api.NewServer(market, accounts, history, logger)
	market.AddTradeListener(server.TradeListener())
	go func() {
		if err := server.Start(ctx, cfg.API.Addr); err != nil {
			logger.Error("api server failed", zap.Error(err))
		}
	}()

	// ---- Run ----
	if err := market.Start(); err != nil {
		logger.Fatal("market start failed", zap.Error(err))
	}

	var wg sync.WaitGroup
	for _, t := range traders {
		wg.Add(1)
		go func(t *trader.Trader) {
			defer wg.Done()
			t.Run(ctx)
		}(t)
	}
	logger.Info("simulation running",
		zap.Int("traders", len(traders)),
		zap.Strings("symbols", symbols))

	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()
}

// pickStrategy cycles through the example strategies so a default run mixes
// liquidity takers and makers.
func pickStrategy(i int, symbols []string) trader.Strategy {
	switch {
	case i%3 == 0 || len(symbols) == 0:
		return trader.RandomStrategy{}
	case i%3 == 1:
		return trader.NewMeanReversionStrategy()
	default:
		return trader.NewSMACrossStrategy(symbols[i%len(symbols)], 5, 20, 5)
	}
}

func buildLogger(logFile string) (*zap.Logger, error) {
	if logFile != "" {
		return util.NewLoggerWithFile(logFile)
	}
	return util.NewLogger()
}
