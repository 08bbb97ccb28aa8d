package outbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestPublishReachesSubscriber(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	var got []string
	done := make(chan struct{}, 1)

	bus.Subscribe("order.placed", func(ctx context.Context, e domoutbox.Event) error {
		mu.Lock()
		got = append(got, e.EventName())
		mu.Unlock()
		done <- struct{}{}
		return nil
	})

	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.placed"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"order.placed"}, got)
}

func TestEventWithoutSubscriberIsDropped(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "nobody.cares"}))
	bus.Stop(context.Background())
}

func TestHandlerPanicDoesNotKillDispatch(t *testing.T) {
	bus := NewBus(nil)
	done := make(chan struct{}, 1)

	bus.Subscribe("boom", func(ctx context.Context, e domoutbox.Event) error {
		panic("handler exploded")
	})
	bus.Subscribe("ok", func(ctx context.Context, e domoutbox.Event) error {
		done <- struct{}{}
		return nil
	})

	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "boom"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "ok"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop died after handler panic")
	}
}

func TestStopDrainsQueue(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	var seen int
	bus.Subscribe("e", func(ctx context.Context, e domoutbox.Event) error {
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	})

	bus.Start(context.Background())
	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(context.Background(), testEvent{name: "e"}))
	}
	bus.Stop(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, seen)
}
