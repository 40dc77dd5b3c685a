package matching

import (
	"fmt"
	"time"
)

// Trade is an immutable record of a completed match. One of the two order ids
// is zero when the fill was produced against a whole price level of the book
// rather than a tracked counter-order.
type Trade struct {
	BuyOrderID  uint64
	SellOrderID uint64
	Price       Uint
	Quantity    Uint
	Timestamp   time.Time
}

func (t Trade) String() string {
	return fmt.Sprintf("trade: buy #%d x sell #%d | %s @ %s",
		t.BuyOrderID, t.SellOrderID, t.Quantity, t.Price)
}

// TradeHandler is invoked synchronously for every produced trade, in the
// order trades are generated, on the goroutine that processes the order.
type TradeHandler func(Trade)
