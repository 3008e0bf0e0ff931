// Package feed publishes committed trades to a Kafka topic for out-of-process
// consumers. The feed is optional: bootstrap wires it only when brokers are
// configured.
package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"stocksim/pkg/exchange"
	"stocksim/pkg/exchange/orderbook"
)

const queueDepth = 1024

// KafkaPublisher forwards trades to Kafka in generation order. Delivery is
// decoupled from the submitting trader through a bounded queue so a slow
// broker never stalls the trading loop.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger

	queue chan orderbook.Trade
	done  chan struct{}
	once  sync.Once
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
		log:   log,
		queue: make(chan orderbook.Trade, queueDepth),
		done:  make(chan struct{}),
	}
	go p.publishLoop()
	return p
}

// Listener enqueues a trade for publication. Non-blocking: when the queue is
// full the trade is dropped with a warning.
func (p *KafkaPublisher) Listener() exchange.TradeListener {
	return func(t orderbook.Trade) {
		select {
		case p.queue <- t:
		default:
			p.log.Warn("kafka queue full, dropping trade", zap.Uint64("trade_id", t.ID))
		}
	}
}

func (p *KafkaPublisher) publishLoop() {
	defer close(p.done)
	for t := range p.queue {
		value, err := json.Marshal(t)
		if err != nil {
			p.log.Error("marshal trade", zap.Error(err))
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(t.Symbol),
			Value: value,
		})
		cancel()
		if err != nil {
			p.log.Error("kafka publish failed",
				zap.Uint64("trade_id", t.ID),
				zap.Error(err))
		}
	}
}

// Close drains the queue and closes the writer.
func (p *KafkaPublisher) Close() error {
	var err error
	p.once.Do(func() {
		close(p.queue)
		<-p.done
		err = p.writer.Close()
	})
	return err
}
