package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddFiresOnce(t *testing.T) {
	s := NewService(nil)
	defer s.Close()

	var fired int32
	s.Add(20*time.Millisecond, TypeOrderCheck, false, func(ID, interface{}) {
		atomic.AddInt32(&fired, 1)
	}, nil)

	time.Sleep(80 * time.Millisecond)
	require.EqualValues(t, 1, atomic.LoadInt32(&fired))
}

func TestStopBeforeDeadlinePreventsFire(t *testing.T) {
	s := NewService(nil)
	defer s.Close()

	var fired int32
	id := s.Add(50*time.Millisecond, TypeOrderCheck, false, func(ID, interface{}) {
		atomic.AddInt32(&fired, 1)
	}, nil)
	s.Stop(id)

	time.Sleep(100 * time.Millisecond)
	require.EqualValues(t, 0, atomic.LoadInt32(&fired))
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewService(nil)
	defer s.Close()

	id := s.Add(time.Hour, TypeOrderCheck, false, func(ID, interface{}) {}, nil)
	s.Stop(id)
	s.Stop(id)
	s.Stop(ID(9999))
}

func TestPeriodicFiresRepeatedly(t *testing.T) {
	s := NewService(nil)
	defer s.Close()

	var fired int32
	s.Add(15*time.Millisecond, TypePriceCheck, true, func(ID, interface{}) {
		atomic.AddInt32(&fired, 1)
	}, nil)

	time.Sleep(80 * time.Millisecond)
	require.GreaterOrEqual(t, atomic.LoadInt32(&fired), int32(3))
}

func TestStopFromInsideOwnCallbackDoesNotDeadlock(t *testing.T) {
	s := NewService(nil)
	defer s.Close()

	done := make(chan struct{})
	var id ID
	id = s.Add(10*time.Millisecond, TypeOrderCheck, false, func(firedID ID, _ interface{}) {
		s.Stop(firedID)
		close(done)
	}, nil)
	_ = id

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("deadlock: callback-invoked Stop never returned")
	}
}

func TestCallbackReceivesUserData(t *testing.T) {
	s := NewService(nil)
	defer s.Close()

	type payload struct{ n int }
	got := make(chan int, 1)
	s.Add(10*time.Millisecond, TypeOrderCheck, false, func(_ ID, data interface{}) {
		got <- data.(*payload).n
	}, &payload{n: 42})

	select {
	case n := <-got:
		require.Equal(t, 42, n)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}
