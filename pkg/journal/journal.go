// Package journal persists every committed trade to a Pebble database. It is
// an append-only audit feed: book state itself is never persisted and the
// simulator never recovers from it.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"stocksim/pkg/exchange"
	"stocksim/pkg/exchange/orderbook"
)

// queueDepth bounds how many trades can be in flight between the market's
// synchronous listener callback and the background writer.
const queueDepth = 1024

type Journal struct {
	db  *pebble.DB
	log *zap.Logger

	queue chan orderbook.Trade
	done  chan struct{}
	once  sync.Once
}

// Open creates or reopens the journal database at path and starts the
// background writer.
func Open(path string, log *zap.Logger) (*Journal, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(32 << 20),
		MemTableSize: 16 << 20,
		MaxOpenFiles: 500,
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("journal: open pebble db at %s: %w", path, err)
	}

	j := &Journal{
		db:    db,
		log:   log,
		queue: make(chan orderbook.Trade, queueDepth),
		done:  make(chan struct{}),
	}
	go j.writeLoop()
	return j, nil
}

// Listener adapts the journal to the market's trade fan-out. The callback
// runs on the submitting trader's goroutine, so it only enqueues; when the
// queue is full the trade is dropped rather than stalling the trader.
func (j *Journal) Listener() exchange.TradeListener {
	return func(t orderbook.Trade) {
		select {
		case j.queue <- t:
		default:
			j.log.Warn("journal queue full, dropping trade", zap.Uint64("trade_id", t.ID))
		}
	}
}

func (j *Journal) writeLoop() {
	defer close(j.done)
	for t := range j.queue {
		if err := j.append(t); err != nil {
			j.log.Error("journal write failed",
				zap.Uint64("trade_id", t.ID),
				zap.Error(err))
		}
	}
}

func (j *Journal) append(t orderbook.Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}
	// NoSync: trades are telemetry, not recovery state.
	if err := j.db.Set(tradeKey(t), data, pebble.NoSync); err != nil {
		return fmt.Errorf("set trade: %w", err)
	}
	return nil
}

// Recent returns up to limit trades for a symbol, newest first.
func (j *Journal) Recent(symbol string, limit int) ([]orderbook.Trade, error) {
	prefix := tradePrefix(symbol)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("journal iterator: %w", err)
	}
	defer iter.Close()

	var trades []orderbook.Trade
	for ok := iter.Last(); ok && len(trades) < limit; ok = iter.Prev() {
		var t orderbook.Trade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			continue // skip corrupt entries
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// Close drains pending writes and closes the database. Safe to call more
// than once.
func (j *Journal) Close() error {
	var err error
	j.once.Do(func() {
		close(j.queue)
		<-j.done
		err = j.db.Close()
	})
	return err
}

// tradeKey orders entries by symbol, then timestamp, then id, so a prefix
// scan over one symbol walks trades chronologically.
func tradeKey(t orderbook.Trade) []byte {
	key := make([]byte, 0, len(t.Symbol)+19)
	key = append(key, 't', '/')
	key = append(key, t.Symbol...)
	key = append(key, '/')
	key = binary.BigEndian.AppendUint64(key, uint64(t.Timestamp))
	key = binary.BigEndian.AppendUint64(key, t.ID)
	return key
}

func tradePrefix(symbol string) []byte {
	return append(append([]byte("t/"), symbol...), '/')
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
