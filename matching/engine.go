package matching

import (
	"fmt"
	"sync"
	"time"
)

// Engine matches incoming orders against an order book. An incoming order is
// walked through the opposing side best price first; liquidity is consumed
// whole price levels at a time through the book's fill API and one trade is
// produced per touched level. Whatever remains of a limit order afterwards is
// added to the book; market order remainders are dropped since there is no
// liquidity left to take them.
//
// Trade handlers are invoked synchronously on the goroutine calling
// ProcessOrder, in registration order, before ProcessOrder returns.
type Engine struct {
	book *OrderBook

	// Price levels snapshotted per ProcessOrder call.
	maxLevels int

	handlers []TradeHandler

	statsMutex  sync.RWMutex
	tradeCount  uint64
	totalVolume Uint
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxLevels bounds the amount of opposing price levels a single
// ProcessOrder call considers.
func WithMaxLevels(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLevels = n
		}
	}
}

// NewEngine creates and returns new Engine instance matching against the
// given order book.
func NewEngine(book *OrderBook, opts ...Option) *Engine {
	e := &Engine{
		book:      book,
		maxLevels: DefaultMaxMatchLevels,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnTrade registers a handler invoked once per produced trade.
// All handlers must be registered before the first ProcessOrder call: the
// handler list is read without locking during matching. The engine keeps no
// trade history of its own, so handlers registered later miss earlier trades.
func (e *Engine) OnTrade(handler TradeHandler) {
	e.handlers = append(e.handlers, handler)
}

// ProcessOrder matches the order against the book and returns the produced
// trades in execution order. The order is mutated in place as it fills; a
// limit order with remaining quantity is added to the book afterwards.
func (e *Engine) ProcessOrder(order *Order) ([]Trade, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	var trades []Trade
	if order.IsBuy() {
		trades = e.match(order, OrderSideSell, e.book.TopAsks(e.maxLevels))
	} else {
		trades = e.match(order, OrderSideBuy, e.book.TopBids(e.maxLevels))
	}

	if order.IsLimit() && !order.IsExecuted() {
		if err := e.book.AddOrder(*order); err != nil {
			return trades, err
		}
	}

	return trades, nil
}

// match consumes the snapshotted opposing levels in price priority order.
func (e *Engine) match(order *Order, bookSide OrderSide, levels []BookLevel) []Trade {
	var trades []Trade

	for _, level := range levels {
		if order.IsExecuted() {
			break
		}
		// Limit orders stop at the first unacceptable price. Market orders
		// never stop on price.
		if order.IsLimit() {
			if bookSide == OrderSideSell && level.Price.GreaterThan(order.price) {
				break
			}
			if bookSide == OrderSideBuy && level.Price.LessThan(order.price) {
				break
			}
		}

		matchQuantity := Min(order.RestQuantity(), level.Volume)

		// The snapshot may be stale: another writer can have drained the
		// level already. Zero actual fill is a valid outcome, not an error.
		filled := e.book.FillQuantityAtPrice(bookSide, level.Price, matchQuantity)
		if filled.IsZero() {
			continue
		}

		if err := order.Fill(filled); err != nil {
			panic(fmt.Sprintf("engine: fill of %s on taker order #%d: %v", filled, order.id, err))
		}

		// The taker executes at the resting price of each level, which is
		// the standard price improvement of price-time priority. The book
		// side id stays zero: the fill is aggregated over the whole level.
		trade := Trade{
			Price:     level.Price,
			Quantity:  filled,
			Timestamp: time.Now(),
		}
		if order.IsBuy() {
			trade.BuyOrderID = order.id
		} else {
			trade.SellOrderID = order.id
		}
		trades = append(trades, trade)

		e.recordTrade(filled)
		for _, handler := range e.handlers {
			handler(trade)
		}
	}

	return trades
}

// CancelOrder cancels a resting order by id.
func (e *Engine) CancelOrder(id uint64) error {
	return e.book.CancelOrder(id)
}

// Book returns the order book the engine matches against.
func (e *Engine) Book() *OrderBook {
	return e.book
}

// TradeCount returns the total amount of trades produced so far.
func (e *Engine) TradeCount() uint64 {
	e.statsMutex.RLock()
	defer e.statsMutex.RUnlock()

	return e.tradeCount
}

// TotalVolume returns the total quantity traded so far.
func (e *Engine) TotalVolume() Uint {
	e.statsMutex.RLock()
	defer e.statsMutex.RUnlock()

	return e.totalVolume
}

func (e *Engine) recordTrade(quantity Uint) {
	e.statsMutex.Lock()
	defer e.statsMutex.Unlock()

	e.tradeCount++
	e.totalVolume = e.totalVolume.Add(quantity)
}
