package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketgrid/exchange-sim/matching"
)

// Spread limits, multiples of TickSize.
const (
	MinSpread  = 0.05
	MaxSpread  = 0.25
	SpreadStep = 0.05
)

const restingTrack = 256

// GeneratorConfig configures the order flow generator.
type GeneratorConfig struct {
	BasePrice  float64
	Sentiment  Sentiment
	Intensity  Intensity
	NewsShocks bool
	// Seed for the random source; 0 seeds from the current time.
	Seed int64
}

// Generator produces a stream of limit and market orders around a
// sentiment-driven mid price. Limit orders join the book at or behind the
// touch, market orders cross it, and the mix of the two follows the active
// sentiment preset. Safe for concurrent use with the condition setters.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices *PriceEngine
	logger *zap.Logger

	sentiment Sentiment
	intensity Intensity
	shocks    bool

	spread    float64
	mid       float64
	lastTrade float64
	bestBid   float64
	bestAsk   float64

	nextID uint64

	// ring of recently emitted resting order ids, candidates for
	// cancels and modifies
	resting []uint64
}

// NewGenerator creates a generator around the configured base price.
func NewGenerator(cfg GeneratorConfig, logger *zap.Logger) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	base := RoundToTick(cfg.BasePrice)
	g := &Generator{
		rng:       rng,
		prices:    NewPriceEngine(rng),
		logger:    logger,
		sentiment: cfg.Sentiment,
		intensity: cfg.Intensity,
		shocks:    cfg.NewsShocks,
		spread:    MinSpread,
		mid:       base,
		lastTrade: base,
		bestBid:   base - TickSize,
		bestAsk:   base + TickSize,
		nextID:    1,
	}
	g.prices.SetAnchor(base)
	return g
}

// SetCondition switches the active sentiment and intensity.
func (g *Generator) SetCondition(sentiment Sentiment, intensity Intensity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sentiment = sentiment
	g.intensity = intensity
	g.logger.Info("market condition changed",
		zap.Stringer("sentiment", sentiment),
		zap.Stringer("intensity", intensity),
	)
}

// Condition returns the active sentiment and intensity.
func (g *Generator) Condition() (Sentiment, Intensity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sentiment, g.intensity
}

// SetSpread clamps and sets the target spread around the mid price.
func (g *Generator) SetSpread(spread float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.spread = clamp(spread, MinSpread, MaxSpread)
}

// SyncBook refreshes the generator's view of the touch from the live book.
func (g *Generator) SyncBook(book *matching.OrderBook) {
	bid, haveBid := book.BestBid()
	ask, haveAsk := book.BestAsk()

	g.mu.Lock()
	defer g.mu.Unlock()
	if haveBid {
		g.bestBid = RoundToTick(bid.Float64())
	}
	if haveAsk {
		g.bestAsk = RoundToTick(ask.Float64())
	}
	if g.bestAsk <= g.bestBid {
		g.bestAsk = g.bestBid + TickSize
	}
}

// ObserveTrade records the latest trade price as the walk reference.
func (g *Generator) ObserveTrade(price matching.Uint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastTrade = RoundToTick(price.Float64())
}

// Next advances the price walk one tick and emits the next order.
func (g *Generator) Next() matching.Order {
	g.mu.Lock()
	defer g.mu.Unlock()

	params := g.sentiment.FlowParams().Scale(g.intensity)

	result := g.prices.Next(g.mid, g.sentiment, g.intensity, g.shocks)
	g.mid = result.Price
	if result.ShockApplied {
		g.logger.Info("news shock",
			zap.Bool("up", result.ShockUp),
			zap.Float64("percent", result.ShockPercent),
			zap.Float64("mid", g.mid),
		)
	}

	id := g.nextID
	g.nextID++

	if g.rng.Float64() < params.MarketOrderChance {
		return g.marketOrder(id, params)
	}
	return g.limitOrder(id, params)
}

func (g *Generator) limitOrder(id uint64, params FlowParams) matching.Order {
	// Keep both sides of the book populated.
	buyProb := clamp(params.BuyProbability, 0.25, 0.75)
	side := matching.OrderSideSell
	if g.rng.Float64() < buyProb {
		side = matching.OrderSideBuy
	}

	mid := g.lastTrade
	if g.bestBid > 0 && g.bestAsk > g.bestBid {
		mid = (g.bestBid + g.bestAsk) / 2
	}

	offset := float64(g.rng.Intn(6)) * TickSize
	half := g.spread * params.SpreadTightness / 2

	var price float64
	if side == matching.OrderSideBuy {
		price = mid - half - offset
	} else {
		price = mid + half + offset
	}
	price = RoundToTick(price)
	if price <= 0 {
		price = TickSize
	}

	// Resting orders run smaller than taker orders.
	qty := g.quantity(params.MinQuantity/2, params.MaxQuantity/2)

	g.trackResting(id)
	return matching.NewLimitOrder(id, side, matching.NewUintFromFloat(price), matching.NewUint(qty))
}

func (g *Generator) marketOrder(id uint64, params FlowParams) matching.Order {
	buyBias := params.BuyProbability
	if params.PriceDrift > 0 {
		buyBias += 0.15
	} else if params.PriceDrift < 0 {
		buyBias -= 0.15
	}
	buyBias = clamp(buyBias, 0.15, 0.85)

	side := matching.OrderSideSell
	if g.rng.Float64() < buyBias {
		side = matching.OrderSideBuy
	}

	qty := g.quantity(params.MinQuantity, params.MaxQuantity)
	if g.rng.Float64() < params.WhaleProbability {
		qty *= uint64(params.WhaleMultiplier)
	}

	return matching.NewMarketOrder(id, side, matching.NewUint(qty))
}

func (g *Generator) quantity(lo, hi int) uint64 {
	if lo < 1 {
		lo = 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	q := float64(lo+g.rng.Intn(hi-lo)) * g.intensity.VolumeMultiplier()
	if q < 1 {
		q = 1
	}
	return uint64(q)
}

func (g *Generator) trackResting(id uint64) {
	if len(g.resting) < restingTrack {
		g.resting = append(g.resting, id)
		return
	}
	g.resting[g.rng.Intn(len(g.resting))] = id
}

// CancelCandidate rolls the cancel probability and, on success, picks a
// previously emitted resting order id. The order may already be gone, the
// caller is expected to ignore a not-found result.
func (g *Generator) CancelCandidate() (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	params := g.sentiment.FlowParams().Scale(g.intensity)
	if len(g.resting) == 0 || g.rng.Float64() >= params.CancelProbability {
		return 0, false
	}
	return g.resting[g.rng.Intn(len(g.resting))], true
}

// ModifyCandidate rolls the modify probability and, on success, picks a
// resting order id and a fresh target quantity for it.
func (g *Generator) ModifyCandidate() (uint64, matching.Uint, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	params := g.sentiment.FlowParams().Scale(g.intensity)
	if len(g.resting) == 0 || g.rng.Float64() >= params.ModifyProbability {
		return 0, matching.Uint{}, false
	}
	id := g.resting[g.rng.Intn(len(g.resting))]
	qty := g.quantity(params.MinQuantity/2, params.MaxQuantity/2)
	return id, matching.NewUint(qty), true
}

// Delay returns the pause before the next order.
func (g *Generator) Delay() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	params := g.sentiment.FlowParams().Scale(g.intensity)
	ms := params.MinDelayMs
	if params.MaxDelayMs > params.MinDelayMs {
		ms += g.rng.Intn(params.MaxDelayMs - params.MinDelayMs)
	}
	return time.Duration(ms) * time.Millisecond
}

// MidPrice returns the current walk mid price.
func (g *Generator) MidPrice() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mid
}

// Run pushes generated orders into the queue until the context is done or
// the queue shuts down.
func (g *Generator) Run(ctx context.Context, queue *matching.OrderQueue) {
	g.logger.Info("order generator started", zap.Float64("mid", g.MidPrice()))
	for {
		if queue.IsShutdown() {
			return
		}
		queue.Push(g.Next())

		select {
		case <-ctx.Done():
			return
		case <-time.After(g.Delay()):
		}
	}
}
