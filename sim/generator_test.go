package sim_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketgrid/exchange-sim/matching"
	"github.com/marketgrid/exchange-sim/sim"
)

func newTestGenerator(sentiment sim.Sentiment) *sim.Generator {
	return sim.NewGenerator(sim.GeneratorConfig{
		BasePrice: 100,
		Sentiment: sentiment,
		Intensity: sim.IntensityNormal,
		Seed:      42,
	}, zap.NewNop())
}

func TestGeneratorEmitsValidOrders(t *testing.T) {
	g := newTestGenerator(sim.SentimentNeutral)

	var limits, markets, buys, sells int
	lastID := uint64(0)
	for i := 0; i < 500; i++ {
		order := g.Next()
		require.NoError(t, order.Validate())
		require.Greater(t, order.ID(), lastID)
		lastID = order.ID()

		if order.IsLimit() {
			limits++
			require.False(t, order.Price().IsZero())
		} else {
			markets++
		}
		if order.IsBuy() {
			buys++
		} else {
			sells++
		}
	}

	require.Greater(t, limits, 0)
	require.Greater(t, markets, 0)
	require.Greater(t, buys, 0)
	require.Greater(t, sells, 0)
}

func TestGeneratorBullishBias(t *testing.T) {
	g := newTestGenerator(sim.SentimentBullish)

	var buys int
	const n = 2000
	for i := 0; i < n; i++ {
		order := g.Next()
		if order.IsBuy() {
			buys++
		}
	}
	require.Greater(t, buys, n/2)
}

func TestGeneratorCancelCandidates(t *testing.T) {
	g := newTestGenerator(sim.SentimentVolatile)

	_, ok := g.CancelCandidate()
	require.False(t, ok, "no candidates before any resting order exists")

	for i := 0; i < 100; i++ {
		g.Next()
	}

	found := false
	for i := 0; i < 500 && !found; i++ {
		_, found = g.CancelCandidate()
	}
	require.True(t, found)
}

func TestGeneratorSyncBook(t *testing.T) {
	g := newTestGenerator(sim.SentimentSideways)

	book := matching.NewOrderBook()
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(1_000_001, matching.OrderSideBuy, matching.NewUint(95), matching.NewUint(10))))
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(1_000_002, matching.OrderSideSell, matching.NewUint(105), matching.NewUint(10))))
	g.SyncBook(book)

	// Limit orders now land around the synced touch, not the base price.
	for i := 0; i < 200; i++ {
		order := g.Next()
		if !order.IsLimit() {
			continue
		}
		price := order.Price().Float64()
		require.Greater(t, price, 90.0)
		require.Less(t, price, 110.0)
	}
}

func TestGeneratorDelayWithinPresetBounds(t *testing.T) {
	g := newTestGenerator(sim.SentimentNeutral)
	params := sim.SentimentNeutral.FlowParams().Scale(sim.IntensityNormal)

	for i := 0; i < 100; i++ {
		d := g.Delay().Milliseconds()
		require.GreaterOrEqual(t, d, int64(params.MinDelayMs))
		require.LessOrEqual(t, d, int64(params.MaxDelayMs))
	}
}

func TestFlowParamsScaleCaps(t *testing.T) {
	for _, s := range []sim.Sentiment{
		sim.SentimentNeutral, sim.SentimentBullish, sim.SentimentBearish,
		sim.SentimentVolatile, sim.SentimentSideways, sim.SentimentChoppy,
	} {
		p := s.FlowParams().Scale(sim.IntensityExtreme)
		require.LessOrEqual(t, p.WhaleProbability, 0.15)
		require.LessOrEqual(t, p.WhaleMultiplier, 5)
		require.LessOrEqual(t, p.MarketOrderChance, 0.25)
		require.GreaterOrEqual(t, p.MinDelayMs, 5)
		require.GreaterOrEqual(t, p.MaxDelayMs, 20)
		require.GreaterOrEqual(t, p.BuyProbability, 0.1)
		require.LessOrEqual(t, p.BuyProbability, 0.9)
		require.GreaterOrEqual(t, p.MaxQuantity, p.MinQuantity)
	}
}
