package matching

import (
	"gopkg.in/typ.v4/sync2"
)

// Allocator encapsulates recycling of orders and price levels through typed
// pools. The order book churns through both at a high rate during matching,
// so released instances are reused instead of loading the garbage collector.
type Allocator struct {
	priceLevels sync2.Pool[*PriceLevel]
	orders      sync2.Pool[*Order]
}

// NewAllocator creates and returns new Allocator instance.
func NewAllocator() *Allocator {
	return &Allocator{
		priceLevels: sync2.Pool[*PriceLevel]{New: NewPriceLevel},
		orders:      sync2.Pool[*Order]{New: func() *Order { return new(Order) }},
	}
}

// GetPriceLevel allocates a PriceLevel instance.
func (a *Allocator) GetPriceLevel() *PriceLevel {
	return a.priceLevels.Get()
}

// PutPriceLevel releases a PriceLevel instance.
func (a *Allocator) PutPriceLevel(priceLevel *PriceLevel) {
	priceLevel.Clean()
	a.priceLevels.Put(priceLevel)
}

// GetOrder allocates an Order instance.
func (a *Allocator) GetOrder() *Order {
	return a.orders.Get()
}

// PutOrder releases an Order instance.
func (a *Allocator) PutOrder(order *Order) {
	*order = Order{}
	a.orders.Put(order)
}
