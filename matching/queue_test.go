package matching_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marketgrid/exchange-sim/matching"
)

func TestOrderQueueFIFO(t *testing.T) {
	queue := matching.NewOrderQueue()

	require.True(t, queue.Empty())
	require.Equal(t, 0, queue.Size())

	for id := uint64(1); id <= 3; id++ {
		queue.Push(matching.NewLimitOrder(id, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(10)))
	}
	require.Equal(t, 3, queue.Size())

	for id := uint64(1); id <= 3; id++ {
		order, ok := queue.Pop()
		require.True(t, ok)
		require.Equal(t, id, order.ID())
	}
	require.True(t, queue.Empty())
}

func TestOrderQueueTryPop(t *testing.T) {
	queue := matching.NewOrderQueue()

	_, ok := queue.TryPop()
	require.False(t, ok)

	queue.Push(matching.NewMarketOrder(1, matching.OrderSideSell, matching.NewUint(5)))

	order, ok := queue.TryPop()
	require.True(t, ok)
	require.Equal(t, uint64(1), order.ID())

	_, ok = queue.TryPop()
	require.False(t, ok)
}

func TestOrderQueuePopTimeout(t *testing.T) {
	queue := matching.NewOrderQueue()

	t.Run("expires empty", func(t *testing.T) {
		start := time.Now()
		_, ok := queue.PopTimeout(50 * time.Millisecond)
		require.False(t, ok)
		require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("returns a queued order immediately", func(t *testing.T) {
		queue.Push(matching.NewLimitOrder(1, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(10)))

		order, ok := queue.PopTimeout(time.Second)
		require.True(t, ok)
		require.Equal(t, uint64(1), order.ID())
	})

	t.Run("wakes on a late push", func(t *testing.T) {
		go func() {
			time.Sleep(20 * time.Millisecond)
			queue.Push(matching.NewLimitOrder(2, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(10)))
		}()

		order, ok := queue.PopTimeout(2 * time.Second)
		require.True(t, ok)
		require.Equal(t, uint64(2), order.ID())
	})
}

func TestOrderQueueClear(t *testing.T) {
	queue := matching.NewOrderQueue()

	for id := uint64(1); id <= 5; id++ {
		queue.Push(matching.NewLimitOrder(id, matching.OrderSideSell, matching.NewUint(100), matching.NewUint(1)))
	}
	queue.Clear()

	require.True(t, queue.Empty())
	_, ok := queue.TryPop()
	require.False(t, ok)
}

func TestOrderQueueShutdown(t *testing.T) {
	queue := matching.NewOrderQueue()

	queue.Push(matching.NewLimitOrder(1, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(1)))
	queue.Shutdown()
	require.True(t, queue.IsShutdown())

	// Shutdown is idempotent.
	queue.Shutdown()
	require.True(t, queue.IsShutdown())

	// Queued orders drain before the shutdown state is observed.
	order, ok := queue.Pop()
	require.True(t, ok)
	require.Equal(t, uint64(1), order.ID())

	_, ok = queue.Pop()
	require.False(t, ok)
	_, ok = queue.PopTimeout(10 * time.Millisecond)
	require.False(t, ok)
}

func TestOrderQueueShutdownWakesAllWaiters(t *testing.T) {
	queue := matching.NewOrderQueue()

	const waiters = 4
	var wg sync.WaitGroup
	results := make(chan bool, waiters)

	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			_, ok := queue.Pop()
			results <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	queue.Shutdown()
	wg.Wait()
	close(results)

	for ok := range results {
		require.False(t, ok)
	}
}

func TestOrderQueueProducerConsumer(t *testing.T) {
	queue := matching.NewOrderQueue()

	const producers = 3
	const perProducer = 200

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				id := uint64(p*perProducer + i + 1)
				queue.Push(matching.NewLimitOrder(id, matching.OrderSideBuy, matching.NewUint(100), matching.NewUint(1)))
			}
		}(p)
	}

	go func() {
		wg.Wait()
		queue.Shutdown()
	}()

	seen := make(map[uint64]bool)
	for {
		order, ok := queue.Pop()
		if !ok {
			break
		}
		require.False(t, seen[order.ID()], "order %d popped twice", order.ID())
		seen[order.ID()] = true
	}

	require.Len(t, seen, producers*perProducer)
}
