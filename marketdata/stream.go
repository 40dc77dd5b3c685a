package marketdata

import (
	"context"

	"go.uber.org/zap"

	"github.com/marketgrid/exchange-sim/matching"
)

// Stream fans executed trades out to the candle aggregator and, when
// configured, the broker publisher. Its OnTrade method is meant to be
// registered as an engine trade callback.
type Stream struct {
	candles   *CandleManager
	publisher Publisher
	logger    *zap.Logger

	// onCandle, when set, receives every completed candle.
	onCandle func(CompletedCandle)
}

// NewStream creates a stream feeding the given candle manager.
// The publisher may be nil, trades are then only aggregated.
func NewStream(candles *CandleManager, publisher Publisher, logger *zap.Logger) *Stream {
	return &Stream{
		candles:   candles,
		publisher: publisher,
		logger:    logger,
	}
}

// OnCompletedCandle registers a callback for finished candles.
func (s *Stream) OnCompletedCandle(fn func(CompletedCandle)) {
	s.onCandle = fn
}

// OnTrade folds one trade into the candles and publishes it.
// Publish failures are logged and do not stall the matching loop.
func (s *Stream) OnTrade(trade matching.Trade) {
	completed := s.candles.Update(trade.Price.Float64(), trade.Quantity.Float64(), trade.Timestamp)
	if s.onCandle != nil {
		for _, c := range completed {
			s.onCandle(c)
		}
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTrade(context.Background(), trade); err != nil {
		s.logger.Warn("trade publish failed",
			zap.Uint64("buy_order_id", trade.BuyOrderID),
			zap.Uint64("sell_order_id", trade.SellOrderID),
			zap.Error(err),
		)
	}
}

// Candles returns the underlying candle manager.
func (s *Stream) Candles() *CandleManager {
	return s.candles
}
