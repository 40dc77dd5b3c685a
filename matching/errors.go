package matching

import (
	"errors"
)

// Errors used by the package.
var (
	ErrOrderDuplicate       = errors.New("order is duplicated")
	ErrOrderNotFound        = errors.New("order is not found")
	ErrOrderNotActive       = errors.New("order is not active")
	ErrPriceLevelNotFound   = errors.New("price level is not found")
	ErrInvalidOrderID       = errors.New("invalid order id")
	ErrInvalidOrderSide     = errors.New("invalid order side")
	ErrInvalidOrderType     = errors.New("invalid order type")
	ErrInvalidOrderQuantity = errors.New("invalid order quantity")
	ErrOverFill             = errors.New("fill quantity exceeds remaining quantity")
	ErrPriceModifyForbidden = errors.New("price modification is allowed only for unexecuted limit orders")
	ErrQuantityBelowFilled  = errors.New("quantity is less than already executed quantity")
	ErrMarketOrderRest      = errors.New("market order can not rest in the order book")
)
