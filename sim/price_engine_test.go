package sim_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketgrid/exchange-sim/sim"
)

func onTick(t *testing.T, price float64) {
	t.Helper()
	ticks := price / sim.TickSize
	require.InDelta(t, math.Round(ticks), ticks, 1e-6, "price %v is not tick aligned", price)
}

func TestPriceEngineWalk(t *testing.T) {
	engine := sim.NewPriceEngine(rand.New(rand.NewSource(1)))

	price := 100.0
	moved := false
	for i := 0; i < 1000; i++ {
		result := engine.Next(price, sim.SentimentNeutral, sim.IntensityNormal, false)
		require.GreaterOrEqual(t, result.Price, sim.MinPrice)
		require.False(t, result.ShockApplied)
		onTick(t, result.Price)
		if result.Price != price {
			moved = true
		}
		price = result.Price
	}
	require.True(t, moved)
}

func TestPriceEngineShocks(t *testing.T) {
	engine := sim.NewPriceEngine(rand.New(rand.NewSource(7)))

	price := 100.0
	shocks := 0
	sinceLast := 0
	for i := 0; i < 5000; i++ {
		result := engine.Next(price, sim.SentimentVolatile, sim.IntensityNormal, true)
		sinceLast++
		if result.ShockApplied {
			shocks++
			require.GreaterOrEqual(t, sinceLast, 20, "shocks must respect the cooldown")
			mult := sim.IntensityNormal.Multiplier()
			require.GreaterOrEqual(t, result.ShockPercent, 0.01*mult)
			require.LessOrEqual(t, result.ShockPercent, 0.03*mult)
			sinceLast = 0
		}
		price = result.Price
	}
	require.Greater(t, shocks, 0)
}

func TestPriceEngineMeanReversion(t *testing.T) {
	engine := sim.NewPriceEngine(rand.New(rand.NewSource(3)))
	engine.SetAnchor(100)

	price := 100.0
	for i := 0; i < 5000; i++ {
		result := engine.Next(price, sim.SentimentSideways, sim.IntensityNormal, false)
		price = result.Price
	}
	// Sideways drift stays in a band around the anchor.
	require.InDelta(t, 100, price, 10)
}

func TestPriceEngineFloor(t *testing.T) {
	engine := sim.NewPriceEngine(rand.New(rand.NewSource(5)))

	price := sim.MinPrice
	for i := 0; i < 200; i++ {
		result := engine.Next(price, sim.SentimentBearish, sim.IntensityExtreme, false)
		require.GreaterOrEqual(t, result.Price, sim.MinPrice)
		price = result.Price
	}
}

func TestRoundToTick(t *testing.T) {
	require.InDelta(t, 100.05, sim.RoundToTick(100.06), 1e-9)
	require.InDelta(t, 100.10, sim.RoundToTick(100.08), 1e-9)
	require.InDelta(t, 0, sim.RoundToTick(0.02), 1e-9)
}
