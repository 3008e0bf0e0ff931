package exchange

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// PriceFloor is the lowest mark price a tick can produce, in cents.
const PriceFloor int64 = 1

// tickStdDev is the standard deviation of the per-tick percentage move.
const tickStdDev = 0.001

// PriceProcess perturbs every listed stock's mark price on a fixed interval
// with a zero-mean Gaussian percentage move. It touches only Stock cells and
// never takes a book lock.
type PriceProcess struct {
	interval time.Duration
	rng      *rand.Rand
	log      *zap.Logger
	stocks   func() []*Stock // deterministically ordered snapshot
}

func newPriceProcess(interval time.Duration, rng *rand.Rand, log *zap.Logger, stocks func() []*Stock) *PriceProcess {
	return &PriceProcess{interval: interval, rng: rng, log: log, stocks: stocks}
}

func (p *PriceProcess) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tickAll()
		}
	}
}

// tickAll steps every stock. A failure on one symbol must not stop the rest
// of the tick or future ticks, so each step is isolated.
func (p *PriceProcess) tickAll() {
	for _, s := range p.stocks() {
		p.tick(s)
	}
}

func (p *PriceProcess) tick(s *Stock) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("price tick failed",
				zap.String("symbol", s.Ticker()),
				zap.Any("panic", r))
		}
	}()
	s.SetMarkPrice(nextPrice(s.MarkPrice(), p.rng.NormFloat64()))
}

// nextPrice applies one bounded random-walk step: new = old * (1 + draw*sigma),
// rounded to whole cents and clamped at the floor. Any Gaussian draw keeps the
// result strictly positive.
func nextPrice(old int64, draw float64) int64 {
	next := int64(math.Round(float64(old) * (1 + draw*tickStdDev)))
	if next < PriceFloor {
		return PriceFloor
	}
	return next
}
