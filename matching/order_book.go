package matching

import (
	"fmt"
	"sync"

	"github.com/tidwall/btree"
	"github.com/tidwall/hashmap"
)

// BookLevel is a (price, volume) pair describing one price level of a side,
// used for depth snapshots.
type BookLevel struct {
	Price  Uint
	Volume Uint
}

// OrderBook stores buy and sell orders in price level order: bids from the
// highest price down, asks from the lowest price up. Every resting order is
// owned by the book exclusively; price levels reference orders only through
// their FIFO queues and the id index gives O(1) access for cancel and modify.
//
// Thread-safe: every public method acquires the single book-wide mutex for
// its duration. There is no per-level locking, price levels are created and
// destroyed as a side effect of almost any operation. Pointers obtained from
// Order are valid only until the next mutating call.
type OrderBook struct {
	mu sync.Mutex

	// Allocator used by the order book.
	allocator *Allocator

	// Bid/Ask price levels. The bids tree compares reversed so that both
	// trees iterate best price first.
	bids *btree.BTreeG[*PriceLevel]
	asks *btree.BTreeG[*PriceLevel]

	// Orders storage, owns every resting order.
	orders *hashmap.Map[uint64, *Order]
}

// NewOrderBook creates and returns new OrderBook instance.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		allocator: NewAllocator(),
		bids: btree.NewBTreeG[*PriceLevel](func(a, b *PriceLevel) bool {
			return a.price.GreaterThan(b.price)
		}),
		asks: btree.NewBTreeG[*PriceLevel](func(a, b *PriceLevel) bool {
			return a.price.LessThan(b.price)
		}),
		orders: hashmap.New[uint64, *Order](defaultReservedOrderSlots),
	}
}

////////////////////////////////////////////////////////////////
// Orders management
////////////////////////////////////////////////////////////////

// AddOrder adds a copy of the given order to the book, taking ownership.
// Only active limit orders can rest; duplicated order ids are rejected.
func (ob *OrderBook) AddOrder(order Order) error {
	if err := order.Validate(); err != nil {
		return err
	}
	if order.IsMarket() {
		return ErrMarketOrderRest
	}
	if !order.IsActive() {
		return ErrOrderNotActive
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	if _, ok := ob.orders.Get(order.id); ok {
		return ErrOrderDuplicate
	}

	o := ob.allocator.GetOrder()
	*o = order
	o.markOpen()

	ob.orders.Set(o.id, o)
	ob.levelFor(o).enqueue(o)

	return nil
}

// CancelOrder cancels an active order by id, removing it from its price
// level and from the id index. The level is deleted once empty.
func (ob *OrderBook) CancelOrder(id uint64) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, ok := ob.orders.Get(id)
	if !ok {
		return ErrOrderNotFound
	}
	if err := order.Cancel(); err != nil {
		return err
	}

	ob.unqueueOrder(order)
	ob.orders.Delete(id)
	ob.allocator.PutOrder(order)

	return nil
}

// ModifyOrderPrice moves an order to a new price level. The order is removed
// from its current level first and reinserted even when the price change is
// rejected, so it can never be lost from the book mid-operation.
func (ob *OrderBook) ModifyOrderPrice(id uint64, newPrice Uint) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, ok := ob.orders.Get(id)
	if !ok {
		return ErrOrderNotFound
	}
	if !order.IsActive() {
		return ErrOrderNotActive
	}

	ob.unqueueOrder(order)
	err := order.ModifyPrice(newPrice)
	ob.levelFor(order).enqueue(order)

	return err
}

// ModifyOrderQuantity changes the requested quantity of an order, adjusting
// the cached volume of its price level by the difference. Shrinking the
// quantity exactly to the executed amount fills the order and removes it.
func (ob *OrderBook) ModifyOrderQuantity(id uint64, newQuantity Uint) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, ok := ob.orders.Get(id)
	if !ok {
		return ErrOrderNotFound
	}
	if !order.IsActive() {
		return ErrOrderNotActive
	}

	oldRest := order.RestQuantity()
	if err := order.ModifyQuantity(newQuantity); err != nil {
		return err
	}

	level := ob.findLevel(order.side, order.price)
	if level == nil {
		panic(fmt.Sprintf("order book: order #%d resides at missing %s level %s", id, order.side, order.price))
	}
	level.volume = level.volume.Sub(oldRest).Add(order.RestQuantity())

	if order.IsExecuted() {
		if err := level.unlink(order); err != nil {
			panic(fmt.Sprintf("order book: unlink of order #%d: %v", id, err))
		}
		if level.queue.Len() == 0 {
			ob.deleteLevel(order.side, level)
		}
		ob.orders.Delete(id)
		ob.allocator.PutOrder(order)
	}

	return nil
}

// Order returns the resting order with given id or nil.
// The returned pointer is valid only until the next mutating call on the
// book; callers must not retain it across such calls.
func (ob *OrderBook) Order(id uint64) *Order {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if order, ok := ob.orders.Get(id); ok {
		return order
	}
	return nil
}

////////////////////////////////////////////////////////////////
// Market data
////////////////////////////////////////////////////////////////

// BestBid returns the highest bid price, or false if there are no bids.
func (ob *OrderBook) BestBid() (Uint, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if level, ok := ob.bids.Min(); ok {
		return level.price, true
	}
	return Uint{}, false
}

// BestAsk returns the lowest ask price, or false if there are no asks.
func (ob *OrderBook) BestAsk() (Uint, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if level, ok := ob.asks.Min(); ok {
		return level.price, true
	}
	return Uint{}, false
}

// Spread returns best ask minus best bid, or false if either side is empty.
// A book fed through the matching engine never crosses, so the difference is
// never negative.
func (ob *OrderBook) Spread() (Uint, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	bid, okBid := ob.bids.Min()
	ask, okAsk := ob.asks.Min()
	if !okBid || !okAsk {
		return Uint{}, false
	}
	return ask.price.Sub(bid.price), true
}

// QuantityAtPrice returns the total remaining quantity resting at the exact
// price on the given side, zero if the level does not exist.
func (ob *OrderBook) QuantityAtPrice(side OrderSide, price Uint) Uint {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if level := ob.findLevel(side, price); level != nil {
		return level.volume
	}
	return Uint{}
}

// FillQuantityAtPrice reduces the level at the given side and price by up to
// quantity, consuming resting orders strictly FIFO. Fully consumed orders are
// removed from the level and the id index and released. Returns the quantity
// actually filled, which is less than requested when the level holds less.
// The level is deleted the moment it empties.
func (ob *OrderBook) FillQuantityAtPrice(side OrderSide, price Uint, quantity Uint) Uint {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	level := ob.findLevel(side, price)
	if level == nil {
		return Uint{}
	}

	filled := NewZeroUint()
	for level.queue.Len() > 0 && filled.LessThan(quantity) {
		order := level.Front()
		toFill := Min(order.RestQuantity(), quantity.Sub(filled))

		if err := order.Fill(toFill); err != nil {
			panic(fmt.Sprintf("order book: fill of %s on order #%d: %v", toFill, order.id, err))
		}
		level.reduce(toFill)
		filled = filled.Add(toFill)

		if order.IsExecuted() {
			if err := level.unlink(order); err != nil {
				panic(fmt.Sprintf("order book: unlink of order #%d: %v", order.id, err))
			}
			ob.orders.Delete(order.id)
			ob.allocator.PutOrder(order)
		}
	}

	if level.queue.Len() == 0 {
		if !level.volume.IsZero() {
			panic(fmt.Sprintf("order book: empty %s level %s caches volume %s", side, price, level.volume))
		}
		ob.deleteLevel(side, level)
	}

	return filled
}

////////////////////////////////////////////////////////////////
// Book snapshots
////////////////////////////////////////////////////////////////

// TopBids returns up to n bid levels as (price, volume) pairs, best first.
func (ob *OrderBook) TopBids(n int) []BookLevel {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return topLevels(ob.bids, n)
}

// TopAsks returns up to n ask levels as (price, volume) pairs, best first.
func (ob *OrderBook) TopAsks(n int) []BookLevel {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return topLevels(ob.asks, n)
}

func topLevels(tree *btree.BTreeG[*PriceLevel], n int) []BookLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]BookLevel, 0, n)
	tree.Scan(func(level *PriceLevel) bool {
		levels = append(levels, BookLevel{Price: level.price, Volume: level.volume})
		return len(levels) < n
	})
	return levels
}

////////////////////////////////////////////////////////////////
// Statistics
////////////////////////////////////////////////////////////////

// BidLevels returns the amount of distinct bid price levels.
func (ob *OrderBook) BidLevels() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return ob.bids.Len()
}

// AskLevels returns the amount of distinct ask price levels.
func (ob *OrderBook) AskLevels() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return ob.asks.Len()
}

// Size returns total amount of orders resting in the order book.
func (ob *OrderBook) Size() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return ob.orders.Len()
}

// IsEmpty returns true if the order book has no orders.
func (ob *OrderBook) IsEmpty() bool {
	return ob.Size() == 0
}

// Clear removes and releases every order and price level from both sides.
func (ob *OrderBook) Clear() {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.orders.Scan(func(_ uint64, order *Order) bool {
		order.queued = nil
		ob.allocator.PutOrder(order)
		return true
	})
	ob.orders = hashmap.New[uint64, *Order](defaultReservedOrderSlots)

	release := func(level *PriceLevel) bool {
		level.queue.Clean()
		ob.allocator.PutPriceLevel(level)
		return true
	}
	ob.bids.Scan(release)
	ob.asks.Scan(release)
	ob.bids.Clear()
	ob.asks.Clear()
}

////////////////////////////////////////////////////////////////
// Internal helpers
////////////////////////////////////////////////////////////////

// treeFor returns the price level tree of the given side.
func (ob *OrderBook) treeFor(side OrderSide) *btree.BTreeG[*PriceLevel] {
	if side == OrderSideBuy {
		return ob.bids
	}
	return ob.asks
}

// findLevel returns the price level at the exact price or nil.
func (ob *OrderBook) findLevel(side OrderSide, price Uint) *PriceLevel {
	probe := PriceLevel{price: price}
	if level, ok := ob.treeFor(side).Get(&probe); ok {
		return level
	}
	return nil
}

// levelFor returns the price level the order belongs to, creating it if absent.
func (ob *OrderBook) levelFor(order *Order) *PriceLevel {
	if level := ob.findLevel(order.side, order.price); level != nil {
		return level
	}
	level := ob.allocator.GetPriceLevel()
	level.price = order.price
	ob.treeFor(order.side).Set(level)
	return level
}

// unqueueOrder removes the order from its price level, deleting the level
// once it holds no orders.
func (ob *OrderBook) unqueueOrder(order *Order) {
	level := ob.findLevel(order.side, order.price)
	if level == nil {
		panic(fmt.Sprintf("order book: order #%d resides at missing %s level %s", order.id, order.side, order.price))
	}
	if err := level.remove(order); err != nil {
		panic(fmt.Sprintf("order book: remove of order #%d: %v", order.id, err))
	}
	if level.queue.Len() == 0 {
		ob.deleteLevel(order.side, level)
	}
}

// deleteLevel detaches the level from its tree and releases it.
func (ob *OrderBook) deleteLevel(side OrderSide, level *PriceLevel) {
	if _, ok := ob.treeFor(side).Delete(level); !ok {
		panic(fmt.Sprintf("order book: %s level %s is not in the tree", side, level.price))
	}
	ob.allocator.PutPriceLevel(level)
}
