package trader

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"stocksim/pkg/exchange"
	"stocksim/pkg/util"
)

// Config tunes one trader loop. Zero values fall back to the defaults below.
type Config struct {
	SleepMin    time.Duration // base cycle sleep
	SleepJitter time.Duration // random extra sleep, prevents lockstep
	ReportEvery time.Duration // cash/PnL report cadence
	Clock       util.Clock
}

const (
	defaultSleepMin    = 200 * time.Millisecond
	defaultSleepJitter = 400 * time.Millisecond
	defaultReportEvery = time.Second
)

func (c Config) withDefaults() Config {
	if c.SleepMin <= 0 {
		c.SleepMin = defaultSleepMin
	}
	if c.SleepJitter <= 0 {
		c.SleepJitter = defaultSleepJitter
	}
	if c.ReportEvery <= 0 {
		c.ReportEvery = defaultReportEvery
	}
	if c.Clock == nil {
		c.Clock = util.RealClock{}
	}
	return c
}

// Trader is one autonomous agent: each cycle it snapshots symbols and prices,
// asks its strategy for orders, submits them, and applies any fill touching
// its own id to its account. Stop is cooperative through the context; the
// loop exits within one sleep interval of cancellation.
type Trader struct {
	id       string
	strategy Strategy
	market   *exchange.Market
	account  *exchange.Account
	rng      *rand.Rand
	log      *zap.Logger
	cfg      Config
}

func New(id string, strategy Strategy, market *exchange.Market, startingCash int64, rng *rand.Rand, log *zap.Logger, cfg Config) *Trader {
	return &Trader{
		id:       id,
		strategy: strategy,
		market:   market,
		account:  exchange.NewAccount(startingCash),
		rng:      rng,
		log:      log.With(zap.String("trader", id)),
		cfg:      cfg.withDefaults(),
	}
}

func (t *Trader) ID() string { return t.id }

func (t *Trader) Account() *exchange.Account { return t.account }

// Run executes the trading loop until ctx is cancelled. Cancellation during
// the sleep is a clean exit, not a fault.
func (t *Trader) Run(ctx context.Context) {
	lastReport := t.cfg.Clock.Now()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		t.cycle()

		if now := t.cfg.Clock.Now(); now.Sub(lastReport) >= t.cfg.ReportEvery {
			t.report()
			lastReport = now
		}

		sleep := t.cfg.SleepMin + time.Duration(t.rng.Int63n(int64(t.cfg.SleepJitter)))
		select {
		case <-ctx.Done():
			return
		case <-t.cfg.Clock.After(sleep):
		}
	}
}

// cycle runs one snapshot-propose-submit-settle pass.
func (t *Trader) cycle() {
	orders := t.strategy.Generate(t.id, t.market.Symbols(), t.market.LastPrice, t.rng)
	for _, o := range orders {
		trades, err := t.market.Submit(o)
		if err != nil {
			// Skip the order and continue; submission errors are not fatal
			// to the loop.
			t.log.Warn("order rejected",
				zap.String("symbol", o.Symbol),
				zap.Error(err))
			continue
		}
		for _, tr := range trades {
			if tr.BuyTraderID == t.id || tr.SellTraderID == t.id {
				t.account.ApplyFill(tr, t.id)
			}
		}
		if len(trades) > 0 {
			t.log.Info("filled",
				zap.String("symbol", o.Symbol),
				zap.Int("trades", len(trades)))
		}
	}
}

func (t *Trader) report() {
	t.log.Info("report",
		zap.Int64("cash", t.account.Cash()),
		zap.Int64("pnl", t.account.UnrealizedPnL(t.market.LastPrice)),
		zap.Any("positions", t.account.PositionsSnapshot()))
}
