package inprocbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpool/arbiq/pkg/message"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewEventBus()

	var mu sync.Mutex
	var got1, got2 message.Message
	done1 := make(chan struct{})
	done2 := make(chan struct{})

	_, err := bus.Subscribe("orders", func(m message.Message) {
		mu.Lock()
		got1 = m
		mu.Unlock()
		close(done1)
	})
	require.NoError(t, err)

	_, err = bus.Subscribe("orders", func(m message.Message) {
		mu.Lock()
		got2 = m
		mu.Unlock()
		close(done2)
	})
	require.NoError(t, err)

	err = bus.Publish("orders", message.Message{ID: "1"})
	require.NoError(t, err)

	waitClosed(t, done1)
	waitClosed(t, done2)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "1", got1.ID)
	assert.Equal(t, "1", got2.ID)
}

func TestPublishIgnoresOtherTopics(t *testing.T) {
	bus := NewEventBus()

	called := make(chan struct{}, 1)
	_, err := bus.Subscribe("orders", func(m message.Message) {
		called <- struct{}{}
	})
	require.NoError(t, err)

	err = bus.Publish("trades", message.Message{ID: "1"})
	require.NoError(t, err)

	select {
	case <-called:
		t.Fatal("handler for a different topic must not be invoked")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeRemovesOnlyThatSubscription(t *testing.T) {
	bus := NewEventBus()

	var count1, count2 int
	var mu sync.Mutex

	unsub1, err := bus.Subscribe("orders", func(m message.Message) {
		mu.Lock()
		count1++
		mu.Unlock()
	})
	require.NoError(t, err)

	_, err = bus.Subscribe("orders", func(m message.Message) {
		mu.Lock()
		count2++
		mu.Unlock()
	})
	require.NoError(t, err)

	unsub1()

	require.NoError(t, bus.Publish("orders", message.Message{ID: "1"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count2 == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count1, "unsubscribed handler must not fire")
	assert.Equal(t, 1, count2)
}

func TestUnsubscribeIsSafeToCallOnce(t *testing.T) {
	bus := NewEventBus()

	unsub, err := bus.Subscribe("orders", func(message.Message) {})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		unsub()
	})

	bus.mu.Lock()
	_, exists := bus.subs["orders"]
	bus.mu.Unlock()
	assert.False(t, exists, "empty topic subscriber list must be pruned")
}

func waitClosed(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked in time")
	}
}
