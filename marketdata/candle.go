// Package marketdata derives downstream market data from the trade stream:
// OHLCV candles over several timeframes and an optional broker feed.
package marketdata

import (
	"sync"
	"time"
)

// Timeframes are the candle periods, in seconds.
var Timeframes = []int{1, 5, 30, 60, 300}

// MaxCachedCandles bounds the completed candle history kept per timeframe.
const MaxCachedCandles = 500

// Candle is one OHLCV bar.
type Candle struct {
	// Timestamp is the period start in milliseconds since the epoch.
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// CompletedCandle is a finished bar together with its timeframe.
type CompletedCandle struct {
	Timeframe int    `json:"timeframe"`
	Candle    Candle `json:"candle"`
}

// CandleManager aggregates trade ticks into candles for every timeframe
// and keeps a bounded history of completed bars. Safe for concurrent use.
type CandleManager struct {
	mu      sync.Mutex
	cache   map[int][]Candle
	current map[int]*Candle
}

// NewCandleManager creates a manager covering all Timeframes.
func NewCandleManager() *CandleManager {
	m := &CandleManager{
		cache:   make(map[int][]Candle, len(Timeframes)),
		current: make(map[int]*Candle, len(Timeframes)),
	}
	for _, tf := range Timeframes {
		m.cache[tf] = nil
	}
	return m
}

// Update folds one trade tick into every timeframe and returns the bars
// that the tick closed out.
func (m *CandleManager) Update(price, volume float64, ts time.Time) []CompletedCandle {
	m.mu.Lock()
	defer m.mu.Unlock()

	tsMs := ts.UnixMilli()
	var completed []CompletedCandle

	for _, tf := range Timeframes {
		tfMs := int64(tf) * 1000
		periodStart := tsMs / tfMs * tfMs

		cur := m.current[tf]
		if cur == nil || cur.Timestamp != periodStart {
			if cur != nil {
				m.cache[tf] = append(m.cache[tf], *cur)
				if len(m.cache[tf]) > MaxCachedCandles {
					m.cache[tf] = m.cache[tf][1:]
				}
				completed = append(completed, CompletedCandle{Timeframe: tf, Candle: *cur})
			}
			m.current[tf] = &Candle{
				Timestamp: periodStart,
				Open:      price,
				High:      price,
				Low:       price,
				Close:     price,
				Volume:    volume,
			}
			continue
		}

		if price > cur.High {
			cur.High = price
		}
		if price < cur.Low {
			cur.Low = price
		}
		cur.Close = price
		cur.Volume += volume
	}

	return completed
}

// Cached returns a copy of the completed candle history for a timeframe.
func (m *CandleManager) Cached(timeframe int) []Candle {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.cache[timeframe]
	if len(src) == 0 {
		return nil
	}
	out := make([]Candle, len(src))
	copy(out, src)
	return out
}

// Current returns the in-progress candle for a timeframe, if any.
func (m *CandleManager) Current(timeframe int) (Candle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.current[timeframe]
	if cur == nil {
		return Candle{}, false
	}
	return *cur, true
}

// Reset drops all candle state.
func (m *CandleManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tf := range Timeframes {
		m.cache[tf] = nil
		delete(m.current, tf)
	}
}
