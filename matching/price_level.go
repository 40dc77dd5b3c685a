package matching

import (
	"github.com/marketgrid/exchange-sim/types/list"
)

// PriceLevel groups all orders resting at one exact price and encapsulates
// their FIFO queue. The queue order is the arrival order, which is the fill
// priority within the level. Total volume of the queue is cached and kept
// equal to the sum of the remaining quantities of the queued orders.
// NOTE: Not thread-safe, guarded by the owning order book.
type PriceLevel struct {
	price  Uint
	volume Uint // total remaining volume of the entire order queue
	queue  *list.List[*Order]
}

// NewPriceLevel creates and returns new PriceLevel instance.
func NewPriceLevel() *PriceLevel {
	return &PriceLevel{
		queue: list.NewList[*Order](),
	}
}

// Price returns price of the level.
func (pl *PriceLevel) Price() Uint {
	return pl.price
}

// Volume returns cached total remaining volume of the level.
func (pl *PriceLevel) Volume() Uint {
	return pl.volume
}

// Orders returns amount of orders queued at the level.
func (pl *PriceLevel) Orders() int {
	return pl.queue.Len()
}

// Front returns the oldest resting order of the level or nil.
func (pl *PriceLevel) Front() *Order {
	if e := pl.queue.Front(); e != nil {
		return e.Value
	}
	return nil
}

// enqueue appends the order to the back of the FIFO queue.
func (pl *PriceLevel) enqueue(order *Order) {
	order.queued = pl.queue.PushBack(order)
	pl.volume = pl.volume.Add(order.RestQuantity())
}

// remove unlinks the order from the queue and subtracts its remaining volume.
func (pl *PriceLevel) remove(order *Order) error {
	if err := pl.unlink(order); err != nil {
		return err
	}
	pl.volume = pl.volume.Sub(order.RestQuantity())
	return nil
}

// unlink removes the order from the queue without touching the volume cache.
func (pl *PriceLevel) unlink(order *Order) error {
	if _, err := pl.queue.Remove(order.queued); err != nil {
		return err
	}
	order.queued = nil
	return nil
}

// reduce subtracts already executed volume from the cache.
func (pl *PriceLevel) reduce(quantity Uint) {
	pl.volume = pl.volume.Sub(quantity)
}

// Clean resets the price level removing all queued orders.
func (pl *PriceLevel) Clean() {
	pl.price = NewZeroUint()
	pl.volume = NewZeroUint()
	pl.queue.Clean()
}
