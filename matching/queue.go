package matching

import (
	"sync"
	"time"
)

// OrderQueue is an unbounded FIFO transfer channel of orders between
// producing and consuming goroutines. Ownership of an order moves into the
// queue on Push and out of it on Pop, values are never shared.
//
// Push signals a single waiting consumer; multiple waiters need multiple
// pushes to all wake up. Shutdown is sticky: once signaled it can not be
// undone, it wakes every blocked consumer, and all pops observe it as soon
// as the queue drains.
type OrderQueue struct {
	mutex    sync.Mutex
	notEmpty *sync.Cond
	orders   []Order
	shutdown bool
}

// NewOrderQueue creates and returns new OrderQueue instance.
func NewOrderQueue() *OrderQueue {
	q := new(OrderQueue)
	q.notEmpty = sync.NewCond(&q.mutex)
	return q
}

// Push appends the order to the back of the queue and wakes one waiting
// consumer. Push never blocks beyond the queue lock.
func (q *OrderQueue) Push(order Order) {
	q.mutex.Lock()
	q.orders = append(q.orders, order)
	q.mutex.Unlock()

	q.notEmpty.Signal()
}

// Pop removes and returns the front order, blocking while the queue is
// empty. Returns false only after shutdown with an empty queue.
func (q *OrderQueue) Pop() (Order, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for len(q.orders) == 0 && !q.shutdown {
		q.notEmpty.Wait()
	}

	return q.popFront()
}

// TryPop removes and returns the front order without blocking.
// Returns false immediately when the queue is empty.
func (q *OrderQueue) TryPop() (Order, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.popFront()
}

// PopTimeout behaves like Pop but waits at most the given duration,
// returning false on timeout or on shutdown with an empty queue.
func (q *OrderQueue) PopTimeout(timeout time.Duration) (Order, bool) {
	deadline := time.Now().Add(timeout)

	q.mutex.Lock()
	defer q.mutex.Unlock()

	for len(q.orders) == 0 && !q.shutdown {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Order{}, false
		}

		// sync.Cond has no timed wait; a timer broadcast bounds the sleep.
		// The surrounding loop absorbs the resulting spurious wakeups.
		timer := time.AfterFunc(remaining, q.notEmpty.Broadcast)
		q.notEmpty.Wait()
		timer.Stop()
	}

	return q.popFront()
}

// Size returns a point-in-time snapshot of the amount of queued orders.
func (q *OrderQueue) Size() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return len(q.orders)
}

// Empty returns a point-in-time snapshot of queue emptiness.
func (q *OrderQueue) Empty() bool {
	return q.Size() == 0
}

// Clear atomically discards all queued orders.
func (q *OrderQueue) Clear() {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.orders = nil
}

// Shutdown irreversibly marks the queue as shut down and wakes every blocked
// consumer. Calling it again has no further effect.
func (q *OrderQueue) Shutdown() {
	q.mutex.Lock()
	q.shutdown = true
	q.mutex.Unlock()

	q.notEmpty.Broadcast()
}

// IsShutdown returns true once Shutdown was called.
func (q *OrderQueue) IsShutdown() bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.shutdown
}

// popFront pops the front order if present. Callers hold the lock.
func (q *OrderQueue) popFront() (Order, bool) {
	if len(q.orders) == 0 {
		return Order{}, false
	}

	order := q.orders[0]
	q.orders[0] = Order{}
	q.orders = q.orders[1:]
	if len(q.orders) == 0 {
		q.orders = nil
	}

	return order, true
}
