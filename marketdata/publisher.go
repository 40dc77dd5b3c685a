package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/marketgrid/exchange-sim/matching"
)

// Publisher publishes executed trades to an external stream.
//
//go:generate mockgen -destination=mocks/publisher.go -package=mockmarketdata . Publisher
type Publisher interface {
	PublishTrade(ctx context.Context, trade matching.Trade) error
	Close() error
}

// TradeEvent is the wire form of a trade on the broker topic.
type TradeEvent struct {
	Symbol      string  `json:"symbol"`
	BuyOrderID  uint64  `json:"buy_order_id"`
	SellOrderID uint64  `json:"sell_order_id"`
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"`
	Timestamp   int64   `json:"timestamp"`
}

// KafkaPublisher publishes trade events to a Kafka topic.
type KafkaPublisher struct {
	symbol string
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher writing to the given brokers and topic.
func NewKafkaPublisher(symbol string, brokers []string, topic string) *KafkaPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	})

	return &KafkaPublisher{
		symbol: symbol,
		writer: writer,
	}
}

// PublishTrade writes one trade event to the topic.
func (p *KafkaPublisher) PublishTrade(ctx context.Context, trade matching.Trade) error {
	event := TradeEvent{
		Symbol:      p.symbol,
		BuyOrderID:  trade.BuyOrderID,
		SellOrderID: trade.SellOrderID,
		Price:       trade.Price.Float64(),
		Quantity:    trade.Quantity.Float64(),
		Timestamp:   trade.Timestamp.UnixMilli(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal trade event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(p.symbol),
		Value: value,
	}); err != nil {
		return fmt.Errorf("publish trade event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
