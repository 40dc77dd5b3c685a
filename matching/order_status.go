package matching

// OrderStatus is an enumeration of possible order lifecycle states.
// The status of an order is fully determined by its executed quantity and
// whether it was cancelled: New until it rests or executes, Open once resting,
// Partial after the first partial execution, Filled when executed quantity
// reaches the full quantity. Filled and Cancelled are terminal.
type OrderStatus uint8

const (
	// OrderStatusNew marks an order created but not yet processed.
	OrderStatusNew OrderStatus = iota + 1
	// OrderStatusOpen marks an order resting in the order book.
	OrderStatusOpen
	// OrderStatusPartial marks an order with some, but not all, quantity executed.
	OrderStatusPartial
	// OrderStatusFilled marks a completely executed order.
	OrderStatusFilled
	// OrderStatusCancelled marks an order cancelled by its owner.
	OrderStatusCancelled
)

func (os OrderStatus) String() string {
	switch os {
	case OrderStatusNew:
		return "new"
	case OrderStatusOpen:
		return "open"
	case OrderStatusPartial:
		return "partial"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
