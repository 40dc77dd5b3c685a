package sim

import (
	"math"
	"math/rand"
)

// Price walk constants. All generated prices are multiples of TickSize.
const (
	TickSize = 0.05
	MinPrice = 0.01
)

// News shock tuning.
const (
	shockTriggerChance  = 0.03
	shockMinTicksApart  = 20
	shockMinPercent     = 0.01
	shockMaxPercent     = 0.03
	reversionStrength   = 0.4
	pullbackMinDuration = 2
	pullbackMaxDuration = 4
)

// RoundToTick rounds a price to the nearest tick.
func RoundToTick(price float64) float64 {
	return math.Round(price/TickSize) * TickSize
}

// PriceResult is the outcome of one price engine tick.
type PriceResult struct {
	Price        float64
	ShockApplied bool
	// ShockUp reports the shock direction when ShockApplied is set.
	ShockUp      bool
	ShockPercent float64
}

// PriceEngine produces a sentiment-biased random price walk with trend
// persistence, forced pullbacks, optional mean reversion and occasional
// news shocks. It is not safe for concurrent use.
type PriceEngine struct {
	rng *rand.Rand

	consecutiveMoves int
	lastDirection    int
	pullbackLeft     int

	// anchor price for mean reverting regimes
	anchor float64

	ticksSinceShock int
}

// NewPriceEngine creates a price engine seeded from the given source.
func NewPriceEngine(rng *rand.Rand) *PriceEngine {
	e := &PriceEngine{rng: rng}
	e.Reset()
	return e
}

// Reset clears all trend and shock state.
func (e *PriceEngine) Reset() {
	e.consecutiveMoves = 0
	e.lastDirection = 1
	e.pullbackLeft = 0
	e.anchor = 0
	e.ticksSinceShock = 0
}

// SetAnchor sets the reference price that mean reverting regimes pull toward.
func (e *PriceEngine) SetAnchor(price float64) {
	e.anchor = price
}

// Next advances the walk one tick from the current price.
func (e *PriceEngine) Next(current float64, sentiment Sentiment, intensity Intensity, shocksEnabled bool) PriceResult {
	params := sentiment.Params()
	mult := intensity.Multiplier()

	e.ticksSinceShock++

	if shocksEnabled && e.ticksSinceShock >= shockMinTicksApart && e.rng.Float64() < shockTriggerChance {
		return e.applyShock(current, params, mult)
	}

	if e.anchor <= 0 {
		e.anchor = current
	}

	change, direction := e.nextMove(current, params, mult, sentiment)
	price := RoundToTick(current * (1 + change))

	// Force at least a one tick move so low prices do not stall on rounding.
	if price == current {
		price = current + float64(direction)*TickSize
	}
	if price < MinPrice {
		price = MinPrice
	}
	return PriceResult{Price: price}
}

func (e *PriceEngine) applyShock(current float64, params SentimentParams, mult float64) PriceResult {
	up := e.rng.Float64() < params.UpProbability
	percent := (shockMinPercent + e.rng.Float64()*(shockMaxPercent-shockMinPercent)) * mult

	direction := 1.0
	if !up {
		direction = -1.0
	}
	price := RoundToTick(current * (1 + direction*percent))
	if price < MinPrice {
		price = MinPrice
	}

	e.ticksSinceShock = 0
	e.consecutiveMoves = 0
	e.pullbackLeft = 0

	return PriceResult{
		Price:        price,
		ShockApplied: true,
		ShockUp:      up,
		ShockPercent: percent,
	}
}

func (e *PriceEngine) nextMove(current float64, params SentimentParams, mult float64, sentiment Sentiment) (change float64, direction int) {
	upProb := params.UpProbability

	if params.MeanReversion && e.anchor > 0 {
		deviation := (current - e.anchor) / e.anchor
		upProb = clamp(params.UpProbability-deviation*reversionStrength, 0.2, 0.8)
	}
	if sentiment == SentimentChoppy {
		upProb = 0.35 + e.rng.Float64()*0.30
	}

	switch {
	case e.rng.Float64() < params.ReversalChance:
		direction = -e.lastDirection
		e.consecutiveMoves = 1
		e.lastDirection = direction

	case e.consecutiveMoves >= params.MaxConsecutive:
		direction = -e.lastDirection
		e.pullbackLeft = pullbackMinDuration + e.rng.Intn(pullbackMaxDuration-pullbackMinDuration+1)
		e.consecutiveMoves = 0

	case e.pullbackLeft > 0:
		direction = -e.lastDirection
		e.pullbackLeft--
		if e.pullbackLeft == 0 {
			e.consecutiveMoves = 0
		}

	default:
		if e.consecutiveMoves > 0 && params.TrendStrength > 0.5 {
			bonus := (params.TrendStrength - 0.5) * 0.15
			if e.lastDirection < 0 {
				upProb -= bonus
			} else {
				upProb += bonus
			}
		}
		if e.rng.Float64() < upProb {
			direction = 1
		} else {
			direction = -1
		}
		if direction == e.lastDirection {
			e.consecutiveMoves++
		} else {
			e.consecutiveMoves = 1
			e.lastDirection = direction
		}
	}

	magnitude := (0.5 + e.rng.Float64()*0.5) * params.BaseVolatility * mult
	if e.pullbackLeft > 0 {
		magnitude *= 0.7
	}
	if sentiment == SentimentVolatile && e.rng.Float64() < 0.15 {
		magnitude *= 2
	}
	if sentiment == SentimentChoppy {
		magnitude *= 0.5 + e.rng.Float64()
	}

	return float64(direction) * magnitude, direction
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
