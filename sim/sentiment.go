// Package sim generates a synthetic market: a sentiment-driven price walk
// and a stream of limit and market orders shaped by that sentiment.
package sim

import "strings"

// Sentiment is a market regime that biases order flow and price movement.
type Sentiment uint8

// Sentiment values.
const (
	SentimentNeutral Sentiment = iota
	SentimentBullish
	SentimentBearish
	SentimentVolatile
	SentimentSideways
	SentimentChoppy
)

// String implements fmt.Stringer interface.
func (s Sentiment) String() string {
	switch s {
	case SentimentBullish:
		return "BULLISH"
	case SentimentBearish:
		return "BEARISH"
	case SentimentVolatile:
		return "VOLATILE"
	case SentimentSideways:
		return "SIDEWAYS"
	case SentimentChoppy:
		return "CHOPPY"
	default:
		return "NEUTRAL"
	}
}

// ParseSentiment maps a case-insensitive name to a Sentiment,
// defaulting to neutral for anything unrecognized.
func ParseSentiment(s string) Sentiment {
	switch strings.ToLower(s) {
	case "bullish", "bull", "up":
		return SentimentBullish
	case "bearish", "bear", "down":
		return SentimentBearish
	case "volatile", "vol", "wild":
		return SentimentVolatile
	case "sideways", "calm", "stable", "quiet":
		return SentimentSideways
	case "choppy", "chop", "mixed":
		return SentimentChoppy
	default:
		return SentimentNeutral
	}
}

// Intensity scales how strongly the current sentiment expresses itself.
type Intensity uint8

// Intensity values.
const (
	IntensityNormal Intensity = iota
	IntensityMild
	IntensityModerate
	IntensityAggressive
	IntensityExtreme
)

// String implements fmt.Stringer interface.
func (i Intensity) String() string {
	switch i {
	case IntensityMild:
		return "MILD"
	case IntensityModerate:
		return "MODERATE"
	case IntensityAggressive:
		return "AGGRESSIVE"
	case IntensityExtreme:
		return "EXTREME"
	default:
		return "NORMAL"
	}
}

// ParseIntensity maps a case-insensitive name to an Intensity,
// defaulting to normal for anything unrecognized.
func ParseIntensity(s string) Intensity {
	switch strings.ToLower(s) {
	case "mild", "low", "soft", "gentle":
		return IntensityMild
	case "moderate", "med", "medium":
		return IntensityModerate
	case "aggressive", "high", "strong", "agg":
		return IntensityAggressive
	case "extreme", "max":
		return IntensityExtreme
	default:
		return IntensityNormal
	}
}

// Multiplier returns the price-movement scale factor for the intensity.
func (i Intensity) Multiplier() float64 {
	switch i {
	case IntensityMild:
		return 0.4
	case IntensityModerate:
		return 0.7
	case IntensityAggressive:
		return 1.0
	case IntensityExtreme:
		return 1.25
	default:
		return 0.85
	}
}

// VolumeMultiplier returns the order-size scale factor for the intensity.
func (i Intensity) VolumeMultiplier() float64 {
	switch i {
	case IntensityMild:
		return 0.5
	case IntensityModerate:
		return 0.8
	case IntensityAggressive:
		return 1.2
	case IntensityExtreme:
		return 1.5
	default:
		return 1.0
	}
}

// SentimentParams are the random-walk parameters of one sentiment regime.
type SentimentParams struct {
	// UpProbability is the base chance of an upward move per tick.
	UpProbability float64
	// BaseVolatility is the base relative price change per tick.
	BaseVolatility float64
	// TrendStrength controls how strongly a running trend persists.
	TrendStrength float64
	// ReversalChance is the per-tick chance of a sudden direction flip.
	ReversalChance float64
	// MaxConsecutive caps same-direction moves before a forced pullback.
	MaxConsecutive int
	// MeanReversion pulls the price back toward an anchor when set.
	MeanReversion bool
}

// Params returns the random-walk parameters for the sentiment.
func (s Sentiment) Params() SentimentParams {
	switch s {
	case SentimentBullish:
		return SentimentParams{0.62, 0.0004, 0.80, 0.08, 10, false}
	case SentimentBearish:
		return SentimentParams{0.38, 0.0004, 0.80, 0.08, 10, false}
	case SentimentVolatile:
		return SentimentParams{0.50, 0.0012, 0.65, 0.18, 6, false}
	case SentimentSideways:
		return SentimentParams{0.50, 0.0002, 0.30, 0.10, 5, true}
	case SentimentChoppy:
		return SentimentParams{0.50, 0.0010, 0.20, 0.35, 3, false}
	default:
		return SentimentParams{0.50, 0.0004, 0.50, 0.10, 8, false}
	}
}

// BuyProbability returns the chance that a generated taker order is a buy.
func (s Sentiment) BuyProbability() float64 {
	switch s {
	case SentimentBullish:
		return 0.72
	case SentimentBearish:
		return 0.28
	default:
		return 0.50
	}
}
