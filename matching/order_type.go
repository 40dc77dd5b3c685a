package matching

// OrderType is an enumeration of possible order types.
type OrderType uint8

const (
	// A limit order is an order to buy or sell at a specific price or better.
	// A buy limit order can only be executed at the limit price or lower, and
	// a sell limit order can only be executed at the limit price or higher.
	// A limit order is not guaranteed to execute: it rests in the order book
	// until the market price reaches the limit price.
	OrderTypeLimit OrderType = iota + 1

	// A market order is an order to buy or sell at the best available price.
	// It executes immediately against the resting liquidity and is never added
	// to the order book; any part that cannot be filled is dropped.
	OrderTypeMarket
)

func (ot OrderType) String() string {
	switch ot {
	case OrderTypeLimit:
		return "limit"
	case OrderTypeMarket:
		return "market"
	default:
		return "unknown"
	}
}
