package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/marketgrid/exchange-sim/config"
	"github.com/marketgrid/exchange-sim/marketdata"
	"github.com/marketgrid/exchange-sim/matching"
	"github.com/marketgrid/exchange-sim/server"
	"github.com/marketgrid/exchange-sim/sim"
)

func main() {
	cfg := &config.Config{}
	config.MustLoad(cfg)

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("simulator failed", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	book := matching.NewOrderBook()
	engine := matching.NewEngine(book, matching.WithMaxLevels(cfg.MaxMatchLevels))
	queue := matching.NewOrderQueue()

	generator := sim.NewGenerator(sim.GeneratorConfig{
		BasePrice:  cfg.BasePrice,
		Sentiment:  sim.ParseSentiment(cfg.Sentiment),
		Intensity:  sim.ParseIntensity(cfg.Intensity),
		NewsShocks: cfg.NewsShocks,
	}, logger.Named("sim"))

	var publisher marketdata.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := marketdata.NewKafkaPublisher(cfg.Symbol, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = kafkaPublisher.Close() }()
		publisher = kafkaPublisher
		logger.Info("trade publishing enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	candles := marketdata.NewCandleManager()
	stream := marketdata.NewStream(candles, publisher, logger.Named("marketdata"))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	srv := server.New(cfg.Symbol, book, candles, registry, logger.Named("server"), server.Config{
		Addr:          cfg.Server.Addr,
		DepthInterval: millis(cfg.Server.DepthInterval),
	})
	defer srv.Stop()

	stream.OnCompletedCandle(srv.BroadcastCandle)

	engine.OnTrade(stream.OnTrade)
	engine.OnTrade(srv.OnTrade)
	engine.OnTrade(func(trade matching.Trade) {
		generator.ObserveTrade(trade.Price)
	})

	serverErr := make(chan error, 1)
	go func() { serverErr <- srv.Run(registry) }()

	go generator.Run(ctx, queue)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		consume(queue, engine, generator, logger)
	}()

	logger.Info("exchange simulator started",
		zap.String("symbol", cfg.Symbol),
		zap.Float64("base_price", cfg.BasePrice),
		zap.String("sentiment", cfg.Sentiment),
		zap.String("intensity", cfg.Intensity),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	// Stop the order flow and drain whatever is still queued.
	queue.Shutdown()
	<-consumerDone

	logger.Info("exchange simulator stopped",
		zap.Uint64("trades", engine.TradeCount()),
		zap.String("volume", engine.TotalVolume().String()),
	)
	return nil
}

// consume pops orders until the queue shuts down and is drained, feeding
// each one through the matching engine along with the generator's
// occasional cancels and modifies.
func consume(queue *matching.OrderQueue, engine *matching.Engine, generator *sim.Generator, logger *zap.Logger) {
	book := engine.Book()

	for {
		order, ok := queue.Pop()
		if !ok {
			return
		}

		if _, err := engine.ProcessOrder(&order); err != nil {
			logger.Warn("order rejected", zap.Uint64("order_id", order.ID()), zap.Error(err))
		}
		generator.SyncBook(book)

		if id, ok := generator.CancelCandidate(); ok {
			if err := engine.CancelOrder(id); err != nil && !errors.Is(err, matching.ErrOrderNotFound) {
				logger.Warn("cancel failed", zap.Uint64("order_id", id), zap.Error(err))
			}
		}
		if id, qty, ok := generator.ModifyCandidate(); ok {
			err := book.ModifyOrderQuantity(id, qty)
			if err != nil && !errors.Is(err, matching.ErrOrderNotFound) && !errors.Is(err, matching.ErrQuantityBelowFilled) {
				logger.Warn("modify failed", zap.Uint64("order_id", id), zap.Error(err))
			}
		}
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
