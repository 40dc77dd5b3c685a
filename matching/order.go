package matching

import (
	"fmt"
	"time"

	"github.com/marketgrid/exchange-sim/types/list"
)

// Order contains information about a single buy or sell instruction.
// An order is an instruction to buy or sell on a trading venue. Incoming
// orders are matched against the opposite side of the order book; a limit
// order with unfilled quantity rests in the book until executed or cancelled.
type Order struct {
	id        uint64
	side      OrderSide
	orderType OrderType
	status    OrderStatus

	price    Uint
	quantity Uint
	executed Uint

	timestamp time.Time

	// Element of the price level FIFO queue where the order rests,
	// nil while the order is not in a book.
	queued *list.Element[*Order]
}

// NewLimitOrder creates a limit order resting at the given price until matched.
func NewLimitOrder(id uint64, side OrderSide, price Uint, quantity Uint) Order {
	return Order{
		id:        id,
		side:      side,
		orderType: OrderTypeLimit,
		status:    OrderStatusNew,
		price:     price,
		quantity:  quantity,
		timestamp: time.Now(),
	}
}

// NewMarketOrder creates a market order executed at the best available prices.
// The price of a market order is ignored during matching.
func NewMarketOrder(id uint64, side OrderSide, quantity Uint) Order {
	return Order{
		id:        id,
		side:      side,
		orderType: OrderTypeMarket,
		status:    OrderStatusNew,
		quantity:  quantity,
		timestamp: time.Now(),
	}
}

// ID returns the order ID.
func (o *Order) ID() uint64 {
	return o.id
}

// Side returns the market side of the order.
func (o *Order) Side() OrderSide {
	return o.side
}

// Type returns the order type.
func (o *Order) Type() OrderType {
	return o.orderType
}

// IsLimit returns true if limit order.
func (o *Order) IsLimit() bool {
	return o.orderType == OrderTypeLimit
}

// IsMarket returns true if market order.
func (o *Order) IsMarket() bool {
	return o.orderType == OrderTypeMarket
}

// IsBuy returns true if buy order.
func (o *Order) IsBuy() bool {
	return o.side == OrderSideBuy
}

// Price returns the order price.
func (o *Order) Price() Uint {
	return o.price
}

// Quantity returns the requested order quantity.
func (o *Order) Quantity() Uint {
	return o.quantity
}

// ExecutedQuantity returns the already executed quantity.
func (o *Order) ExecutedQuantity() Uint {
	return o.executed
}

// RestQuantity returns the remaining unexecuted quantity.
func (o *Order) RestQuantity() Uint {
	return o.quantity.Sub(o.executed)
}

// IsExecuted returns true if the order is completely executed.
func (o *Order) IsExecuted() bool {
	return o.executed.Equals(o.quantity)
}

// Status returns the current order status.
func (o *Order) Status() OrderStatus {
	return o.status
}

// Timestamp returns the order creation time.
func (o *Order) Timestamp() time.Time {
	return o.timestamp
}

// IsActive returns true while the order can still be matched or cancelled.
func (o *Order) IsActive() bool {
	return o.status == OrderStatusNew || o.status == OrderStatusOpen || o.status == OrderStatusPartial
}

// Validate returns an error if the order can not be used safely.
func (o *Order) Validate() error {
	if o.id == 0 {
		return ErrInvalidOrderID
	}
	if o.side != OrderSideBuy && o.side != OrderSideSell {
		return ErrInvalidOrderSide
	}
	if o.orderType != OrderTypeLimit && o.orderType != OrderTypeMarket {
		return ErrInvalidOrderType
	}
	if o.quantity.IsZero() {
		return ErrInvalidOrderQuantity
	}
	return nil
}

// Fill executes up to the remaining quantity of the order.
// Filling more than the remaining quantity fails without state change.
func (o *Order) Fill(quantity Uint) error {
	if !o.IsActive() {
		return ErrOrderNotActive
	}
	if quantity.GreaterThan(o.RestQuantity()) {
		return ErrOverFill
	}
	o.executed = o.executed.Add(quantity)
	o.refreshStatus()
	return nil
}

// Cancel marks an active order cancelled. Terminal orders are left untouched.
func (o *Order) Cancel() error {
	if !o.IsActive() {
		return ErrOrderNotActive
	}
	o.status = OrderStatusCancelled
	return nil
}

// ModifyPrice changes the price of a limit order with no executions yet.
// Market orders and partially executed orders keep their price: re-pricing an
// order that already traded would break price-time priority fairness.
func (o *Order) ModifyPrice(newPrice Uint) error {
	if !o.IsActive() {
		return ErrOrderNotActive
	}
	if o.orderType != OrderTypeLimit || !o.executed.IsZero() {
		return ErrPriceModifyForbidden
	}
	o.price = newPrice
	return nil
}

// ModifyQuantity changes the requested quantity. The new quantity can not be
// below the already executed amount; shrinking exactly to it fills the order.
func (o *Order) ModifyQuantity(newQuantity Uint) error {
	if !o.IsActive() {
		return ErrOrderNotActive
	}
	if newQuantity.LessThan(o.executed) {
		return ErrQuantityBelowFilled
	}
	o.quantity = newQuantity
	o.refreshStatus()
	return nil
}

// markOpen transitions a new order to open once it rests in a book.
func (o *Order) markOpen() {
	if o.status == OrderStatusNew {
		o.status = OrderStatusOpen
	}
}

// refreshStatus recomputes a non-terminal status from executed quantity.
func (o *Order) refreshStatus() {
	switch {
	case o.executed.Equals(o.quantity):
		o.status = OrderStatusFilled
	case !o.executed.IsZero():
		o.status = OrderStatusPartial
	}
}

func (o *Order) String() string {
	return fmt.Sprintf("order #%d: %s %s %s @ %s [%s]",
		o.id, o.side, o.orderType, o.quantity, o.price, o.status)
}
