package matching_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketgrid/exchange-sim/matching"
)

func TestOrderBookAddOrder(t *testing.T) {
	book := matching.NewOrderBook()

	err := book.AddOrder(matching.NewLimitOrder(1, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(50)))
	require.NoError(t, err)
	require.Equal(t, 1, book.Size())
	require.Equal(t, 1, book.BidLevels())

	// The book owns a copy; the resting order is open.
	order := book.Order(1)
	require.NotNil(t, order)
	require.Equal(t, matching.OrderStatusOpen, order.Status())

	t.Run("duplicate id", func(t *testing.T) {
		err := book.AddOrder(matching.NewLimitOrder(1, matching.OrderSideSell, matching.NewUint(101), matching.NewUint(10)))
		require.ErrorIs(t, err, matching.ErrOrderDuplicate)
		require.Equal(t, 1, book.Size())
	})

	t.Run("market order can not rest", func(t *testing.T) {
		err := book.AddOrder(matching.NewMarketOrder(2, matching.OrderSideBuy, matching.NewUint(10)))
		require.ErrorIs(t, err, matching.ErrMarketOrderRest)
	})

	t.Run("invalid order", func(t *testing.T) {
		err := book.AddOrder(matching.NewLimitOrder(3, matching.OrderSideBuy, matching.NewUint(100), matching.NewZeroUint()))
		require.ErrorIs(t, err, matching.ErrInvalidOrderQuantity)
	})
}

func TestOrderBookCancelRoundTrip(t *testing.T) {
	book := matching.NewOrderBook()

	require.NoError(t, book.AddOrder(matching.NewLimitOrder(1, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(50))))
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(2, matching.OrderSideSell, matching.NewUint(101), matching.NewUint(50))))

	bidLevels, askLevels, size := book.BidLevels(), book.AskLevels(), book.Size()

	// Add followed by cancel restores every count exactly.
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(7, matching.OrderSideBuy, matching.NewUint(99), matching.NewUint(25))))
	require.Equal(t, bidLevels+1, book.BidLevels())
	require.NoError(t, book.CancelOrder(7))

	require.Equal(t, bidLevels, book.BidLevels())
	require.Equal(t, askLevels, book.AskLevels())
	require.Equal(t, size, book.Size())
	require.Nil(t, book.Order(7))

	t.Run("unknown id", func(t *testing.T) {
		require.ErrorIs(t, book.CancelOrder(1000), matching.ErrOrderNotFound)
	})

	t.Run("cancel is not repeatable", func(t *testing.T) {
		require.ErrorIs(t, book.CancelOrder(7), matching.ErrOrderNotFound)
	})
}

func TestOrderBookBestPricesAndSpread(t *testing.T) {
	book := matching.NewOrderBook()

	_, ok := book.BestBid()
	require.False(t, ok)
	_, ok = book.BestAsk()
	require.False(t, ok)
	_, ok = book.Spread()
	require.False(t, ok)

	require.NoError(t, book.AddOrder(matching.NewLimitOrder(1, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(10))))
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(2, matching.OrderSideBuy, matching.NewUint(99), matching.NewUint(10))))
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(3, matching.OrderSideSell, matching.NewUint(102), matching.NewUint(10))))
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(4, matching.OrderSideSell, matching.NewUint(105), matching.NewUint(10))))

	bid, ok := book.BestBid()
	require.True(t, ok)
	require.True(t, bid.Equals(matching.NewUint(100)), "best bid is the highest resting bid price")

	ask, ok := book.BestAsk()
	require.True(t, ok)
	require.True(t, ask.Equals(matching.NewUint(102)), "best ask is the lowest resting ask price")

	spread, ok := book.Spread()
	require.True(t, ok)
	require.True(t, spread.Equals(matching.NewUint(2)))

	// One-sided book has no spread.
	require.NoError(t, book.CancelOrder(3))
	require.NoError(t, book.CancelOrder(4))
	_, ok = book.Spread()
	require.False(t, ok)
}

func TestOrderBookQuantityAtPrice(t *testing.T) {
	book := matching.NewOrderBook()

	require.NoError(t, book.AddOrder(matching.NewLimitOrder(1, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(30))))
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(2, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(20))))

	require.True(t, book.QuantityAtPrice(matching.OrderSideBuy, matching.NewUint(100)).Equals(matching.NewUint(50)))
	require.True(t, book.QuantityAtPrice(matching.OrderSideBuy, matching.NewUint(99)).IsZero())
	require.True(t, book.QuantityAtPrice(matching.OrderSideSell, matching.NewUint(100)).IsZero())
}

func TestOrderBookFillQuantityAtPriceFIFO(t *testing.T) {
	book := matching.NewOrderBook()

	// Three resting orders at the same price, arrival order 1, 2, 3.
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(1, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(50))))
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(2, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(50))))
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(3, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(50))))

	filled := book.FillQuantityAtPrice(matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(75))
	require.True(t, filled.Equals(matching.NewUint(75)))

	// Order 1 fully consumed and freed, order 2 partially, order 3 untouched.
	require.Nil(t, book.Order(1))

	second := book.Order(2)
	require.NotNil(t, second)
	require.True(t, second.RestQuantity().Equals(matching.NewUint(25)))
	require.Equal(t, matching.OrderStatusPartial, second.Status())

	third := book.Order(3)
	require.NotNil(t, third)
	require.True(t, third.RestQuantity().Equals(matching.NewUint(50)))
	require.Equal(t, matching.OrderStatusOpen, third.Status())

	require.True(t, book.QuantityAtPrice(matching.OrderSideBuy, matching.NewUint(100)).Equals(matching.NewUint(75)))
}

func TestOrderBookFillQuantityAtPriceExhaustsLevel(t *testing.T) {
	book := matching.NewOrderBook()

	require.NoError(t, book.AddOrder(matching.NewLimitOrder(1, matching.OrderSideSell, matching.NewUint(100), matching.NewUint(40))))

	// Requesting more than the level holds fills only what is there.
	filled := book.FillQuantityAtPrice(matching.OrderSideSell, matching.NewUint(100), matching.NewUint(100))
	require.True(t, filled.Equals(matching.NewUint(40)))

	// The exhausted level is gone along with its order.
	require.Equal(t, 0, book.AskLevels())
	require.Equal(t, 0, book.Size())
	require.Nil(t, book.Order(1))

	// Filling a missing level is a zero fill, not an error.
	filled = book.FillQuantityAtPrice(matching.OrderSideSell, matching.NewUint(100), matching.NewUint(10))
	require.True(t, filled.IsZero())
}

func TestOrderBookModifyOrderPrice(t *testing.T) {
	book := matching.NewOrderBook()

	require.NoError(t, book.AddOrder(matching.NewLimitOrder(1, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(50))))

	require.NoError(t, book.ModifyOrderPrice(1, matching.NewUint(101)))

	bid, ok := book.BestBid()
	require.True(t, ok)
	require.True(t, bid.Equals(matching.NewUint(101)))
	require.True(t, book.QuantityAtPrice(matching.OrderSideBuy, matching.NewUint(100)).IsZero())
	require.Equal(t, 1, book.BidLevels())

	t.Run("rejected modify keeps the order in the book", func(t *testing.T) {
		// A partial execution pins the price.
		filled := book.FillQuantityAtPrice(matching.OrderSideBuy, matching.NewUint(101), matching.NewUint(10))
		require.True(t, filled.Equals(matching.NewUint(10)))

		err := book.ModifyOrderPrice(1, matching.NewUint(102))
		require.ErrorIs(t, err, matching.ErrPriceModifyForbidden)

		// Still resting at the original price with the reduced quantity.
		require.True(t, book.QuantityAtPrice(matching.OrderSideBuy, matching.NewUint(101)).Equals(matching.NewUint(40)))
		require.Equal(t, 1, book.Size())
	})
}

func TestOrderBookModifyOrderQuantity(t *testing.T) {
	book := matching.NewOrderBook()

	require.NoError(t, book.AddOrder(matching.NewLimitOrder(1, matching.OrderSideSell, matching.NewUint(100), matching.NewUint(50))))
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(2, matching.OrderSideSell, matching.NewUint(100), matching.NewUint(10))))

	require.NoError(t, book.ModifyOrderQuantity(1, matching.NewUint(80)))
	require.True(t, book.QuantityAtPrice(matching.OrderSideSell, matching.NewUint(100)).Equals(matching.NewUint(90)))

	require.NoError(t, book.ModifyOrderQuantity(1, matching.NewUint(20)))
	require.True(t, book.QuantityAtPrice(matching.OrderSideSell, matching.NewUint(100)).Equals(matching.NewUint(30)))

	t.Run("failed modify leaves the book untouched", func(t *testing.T) {
		filled := book.FillQuantityAtPrice(matching.OrderSideSell, matching.NewUint(100), matching.NewUint(5))
		require.True(t, filled.Equals(matching.NewUint(5)))

		err := book.ModifyOrderQuantity(1, matching.NewUint(4))
		require.ErrorIs(t, err, matching.ErrQuantityBelowFilled)
		require.True(t, book.QuantityAtPrice(matching.OrderSideSell, matching.NewUint(100)).Equals(matching.NewUint(25)))
	})

	t.Run("shrink to executed fills and removes the order", func(t *testing.T) {
		require.NoError(t, book.ModifyOrderQuantity(1, matching.NewUint(5)))
		require.Nil(t, book.Order(1))
		require.True(t, book.QuantityAtPrice(matching.OrderSideSell, matching.NewUint(100)).Equals(matching.NewUint(10)))
	})
}

func TestOrderBookTopLevels(t *testing.T) {
	book := matching.NewOrderBook()

	prices := []uint64{100, 99, 98, 97}
	for i, p := range prices {
		require.NoError(t, book.AddOrder(matching.NewLimitOrder(uint64(i+1), matching.OrderSideBuy, matching.NewUint(p), matching.NewUint(10))))
	}
	for i, p := range []uint64{101, 102, 103} {
		require.NoError(t, book.AddOrder(matching.NewLimitOrder(uint64(i+10), matching.OrderSideSell, matching.NewUint(p), matching.NewUint(5))))
	}

	bids := book.TopBids(2)
	require.Len(t, bids, 2)
	require.True(t, bids[0].Price.Equals(matching.NewUint(100)))
	require.True(t, bids[1].Price.Equals(matching.NewUint(99)))

	// Fewer levels than requested returns what is there, best first.
	asks := book.TopAsks(10)
	require.Len(t, asks, 3)
	require.True(t, asks[0].Price.Equals(matching.NewUint(101)))
	require.True(t, asks[2].Price.Equals(matching.NewUint(103)))

	require.Empty(t, book.TopBids(0))
}

func TestOrderBookClear(t *testing.T) {
	book := matching.NewOrderBook()

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, book.AddOrder(matching.NewLimitOrder(i, matching.OrderSideBuy, matching.NewUint(90+i), matching.NewUint(10))))
		require.NoError(t, book.AddOrder(matching.NewLimitOrder(i+10, matching.OrderSideSell, matching.NewUint(100+i), matching.NewUint(10))))
	}
	require.Equal(t, 10, book.Size())

	book.Clear()

	require.Equal(t, 0, book.Size())
	require.True(t, book.IsEmpty())
	require.Equal(t, 0, book.BidLevels())
	require.Equal(t, 0, book.AskLevels())
	_, ok := book.BestBid()
	require.False(t, ok)

	// The book stays usable after a clear.
	require.NoError(t, book.AddOrder(matching.NewLimitOrder(1, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(10))))
	require.Equal(t, 1, book.Size())
}
