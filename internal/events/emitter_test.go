package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_DeliversInOrder(t *testing.T) {
	var e Emitter[int]
	var got []int
	e.Subscribe(func(v int) { got = append(got, v) })

	for i := range 5 {
		e.Emit(i)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestEmitter_ReentrantEmitIsQueued(t *testing.T) {
	var e Emitter[string]
	var got []string
	e.Subscribe(func(v string) {
		got = append(got, "before:"+v)
		if v == "outer" {
			e.Emit("inner")
		}
		got = append(got, "after:"+v)
	})

	e.Emit("outer")

	assert.Equal(t, []string{"before:outer", "after:outer", "before:inner", "after:inner"}, got)
}

func TestEmitter_ClosedSubscriptionStopsDelivery(t *testing.T) {
	var e Emitter[int]
	count := 0
	sub := e.Subscribe(func(int) { count++ })

	e.Emit(1)
	sub.Close()
	e.Emit(2)

	assert.Equal(t, 1, count)
	assert.True(t, sub.Closed())
	assert.Equal(t, 0, e.Len())
}

func TestEmitter_CloseFromListenerSkipsQueuedEvents(t *testing.T) {
	var e Emitter[int]
	var got []int
	var sub *Subscription
	sub = e.Subscribe(func(v int) {
		got = append(got, v)
		if v == 1 {
			e.Emit(2)
			sub.Close()
		}
	})

	e.Emit(1)

	assert.Equal(t, []int{1}, got)
}

func TestEmitter_ConcurrentEmitDeliversEverything(t *testing.T) {
	var e Emitter[int]
	var mu sync.Mutex
	total := 0
	e.Subscribe(func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Emit(1)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 50, total)
}

func TestEmitter_PanicResetsDrainState(t *testing.T) {
	var e Emitter[int]
	calls := 0
	e.Subscribe(func(v int) {
		calls++
		if v == 1 {
			panic("boom")
		}
	})

	assert.Panics(t, func() { e.Emit(1) })
	e.Emit(2)

	assert.Equal(t, 2, calls)
}

func TestEmitter_Clear(t *testing.T) {
	var e Emitter[int]
	sub := e.Subscribe(func(int) {})
	e.Clear()

	assert.True(t, sub.Closed())
	assert.Equal(t, 0, e.Len())
}

func TestSubscription_NilSafe(t *testing.T) {
	var sub *Subscription
	assert.NotPanics(t, sub.Close)
	assert.True(t, sub.Closed())
}

func TestEmitter_PostThenFlush(t *testing.T) {
	var e Emitter[int]
	var got []int
	e.Subscribe(func(v int) { got = append(got, v) })

	e.Post(1, 2)
	e.Post()
	assert.Empty(t, got)

	e.Flush()
	assert.Equal(t, []int{1, 2}, got)
}
