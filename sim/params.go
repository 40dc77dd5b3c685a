package sim

import "math"

// FlowParams shape the generated order flow for one sentiment regime.
type FlowParams struct {
	// BuyProbability biases order direction: 0.5 is balanced, 1.0 all buys.
	BuyProbability float64

	PriceDrift      float64
	PriceVolatility float64

	MinQuantity       int
	MaxQuantity       int
	WhaleProbability  float64
	WhaleMultiplier   int
	MinDelayMs        int
	MaxDelayMs        int
	SpreadTightness   float64
	CancelProbability float64
	ModifyProbability float64
	MarketOrderChance float64
}

func defaultFlowParams() FlowParams {
	return FlowParams{
		BuyProbability:    0.5,
		PriceVolatility:   0.05,
		MinQuantity:       50,
		MaxQuantity:       200,
		WhaleProbability:  0.1,
		WhaleMultiplier:   5,
		MinDelayMs:        10,
		MaxDelayMs:        50,
		SpreadTightness:   1.0,
		CancelProbability: 0.05,
		ModifyProbability: 0.03,
		MarketOrderChance: 0.1,
	}
}

// FlowParams returns the order-flow preset for the sentiment.
func (s Sentiment) FlowParams() FlowParams {
	p := defaultFlowParams()
	switch s {
	case SentimentBullish:
		p.BuyProbability = 0.70
		p.PriceDrift = 0.005
		p.PriceVolatility = 0.02
		p.MinQuantity = 80
		p.MaxQuantity = 300
		p.WhaleProbability = 0.15
		p.MinDelayMs = 30
		p.MaxDelayMs = 150
		p.SpreadTightness = 0.8
		p.MarketOrderChance = 0.12
	case SentimentBearish:
		p.BuyProbability = 0.30
		p.PriceDrift = -0.005
		p.PriceVolatility = 0.025
		p.MinQuantity = 100
		p.MaxQuantity = 400
		p.WhaleProbability = 0.20
		p.MinDelayMs = 20
		p.MaxDelayMs = 100
		p.SpreadTightness = 1.5
		p.CancelProbability = 0.10
		p.MarketOrderChance = 0.15
	case SentimentVolatile:
		p.PriceVolatility = 0.05
		p.MaxQuantity = 500
		p.WhaleProbability = 0.25
		p.WhaleMultiplier = 8
		p.MinDelayMs = 10
		p.MaxDelayMs = 50
		p.SpreadTightness = 2.0
		p.CancelProbability = 0.15
		p.ModifyProbability = 0.10
		p.MarketOrderChance = 0.18
	case SentimentSideways:
		p.PriceVolatility = 0.005
		p.MinQuantity = 20
		p.MaxQuantity = 100
		p.WhaleProbability = 0.02
		p.MinDelayMs = 100
		p.MaxDelayMs = 250
		p.SpreadTightness = 0.5
		p.CancelProbability = 0.02
		p.MarketOrderChance = 0.05
	case SentimentChoppy:
		p.PriceVolatility = 0.03
		p.MinQuantity = 30
		p.MaxQuantity = 250
		p.WhaleProbability = 0.15
		p.WhaleMultiplier = 6
		p.MinDelayMs = 40
		p.MaxDelayMs = 150
		p.SpreadTightness = 1.3
		p.CancelProbability = 0.12
		p.ModifyProbability = 0.08
		p.MarketOrderChance = 0.12
	}
	return p
}

// Scale applies an intensity multiplier to the preset. Drift, volatility and
// direction bias grow with intensity while delays shrink, with caps keeping
// whale and market order rates from draining the book.
func (p FlowParams) Scale(intensity Intensity) FlowParams {
	mult := intensity.Multiplier()

	p.PriceDrift *= mult
	p.PriceVolatility *= mult

	bias := (p.BuyProbability - 0.5) * mult
	p.BuyProbability = clamp(0.5+bias, 0.1, 0.9)

	p.MinQuantity = int(float64(p.MinQuantity) * (0.5 + mult*0.5))
	p.MaxQuantity = int(float64(p.MaxQuantity) * mult)
	if p.MaxQuantity < p.MinQuantity {
		p.MaxQuantity = p.MinQuantity
	}

	p.WhaleProbability = math.Min(p.WhaleProbability*mult, 0.15)
	p.WhaleMultiplier = min(int(float64(p.WhaleMultiplier)*mult), 5)

	p.MinDelayMs = max(5, int(float64(p.MinDelayMs)/mult))
	p.MaxDelayMs = max(20, int(float64(p.MaxDelayMs)/mult))

	p.MarketOrderChance = math.Min(p.MarketOrderChance*mult, 0.25)

	return p
}
