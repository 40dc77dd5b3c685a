package sim_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketgrid/exchange-sim/sim"
)

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		in   string
		want sim.Sentiment
	}{
		{"bullish", sim.SentimentBullish},
		{"BULL", sim.SentimentBullish},
		{"bearish", sim.SentimentBearish},
		{"down", sim.SentimentBearish},
		{"volatile", sim.SentimentVolatile},
		{"calm", sim.SentimentSideways},
		{"sideways", sim.SentimentSideways},
		{"choppy", sim.SentimentChoppy},
		{"neutral", sim.SentimentNeutral},
		{"garbage", sim.SentimentNeutral},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, sim.ParseSentiment(tt.in), tt.in)
	}
}

func TestParseIntensity(t *testing.T) {
	tests := []struct {
		in   string
		want sim.Intensity
	}{
		{"mild", sim.IntensityMild},
		{"MODERATE", sim.IntensityModerate},
		{"normal", sim.IntensityNormal},
		{"aggressive", sim.IntensityAggressive},
		{"extreme", sim.IntensityExtreme},
		{"garbage", sim.IntensityNormal},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, sim.ParseIntensity(tt.in), tt.in)
	}
}

func TestSentimentStrings(t *testing.T) {
	require.Equal(t, "BULLISH", sim.SentimentBullish.String())
	require.Equal(t, "SIDEWAYS", sim.SentimentSideways.String())
	require.Equal(t, "NORMAL", sim.IntensityNormal.String())
	require.Equal(t, "EXTREME", sim.IntensityExtreme.String())
}

func TestIntensityMultipliers(t *testing.T) {
	require.Less(t, sim.IntensityMild.Multiplier(), sim.IntensityNormal.Multiplier())
	require.Less(t, sim.IntensityNormal.Multiplier(), sim.IntensityExtreme.Multiplier())
	require.Less(t, sim.IntensityMild.VolumeMultiplier(), sim.IntensityExtreme.VolumeMultiplier())
}
