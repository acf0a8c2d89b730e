package util

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorker(t *testing.T) {
	var wg sync.WaitGroup
	var handled int32
	done := make(chan struct{}, 3)
	w := NewWorker("test", &wg, func(task Task) error {
		atomic.AddInt32(&handled, 1)
		done <- struct{}{}
		if task == "bad" {
			return errors.New("bad task")
		}
		return nil
	}, 3)
	w.Start()
	w.Sender() <- "a"
	require.True(t, w.TrySend("bad"))
	require.True(t, w.TrySend("c"))
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("task not handled")
		}
	}
	w.Stop()
	wg.Wait()
	require.Equal(t, int32(3), atomic.LoadInt32(&handled))
}

func TestTickWorker(t *testing.T) {
	var wg sync.WaitGroup
	var ticks int32
	stop := make(chan struct{})
	tw := NewTickWorker("tick", 10*time.Millisecond, stop, func() {
		atomic.AddInt32(&ticks, 1)
	}, &wg)
	tw.Start()
	require.True(t, tw.IsRunning())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&ticks) >= 2 }, time.Second, 5*time.Millisecond)
	tw.Stop()
	wg.Wait()
	require.False(t, tw.IsRunning())
}

func TestTickWorkerSurvivesPanic(t *testing.T) {
	var wg sync.WaitGroup
	stop := make(chan struct{})
	tw := NewTickWorker("panicky", 5*time.Millisecond, stop, func() {
		panic("boom")
	}, &wg)
	tw.Start()
	require.Eventually(t, func() bool { return tw.Runs() >= 3 }, time.Second, 5*time.Millisecond)
	require.True(t, tw.IsRunning())
	tw.Stop()
	wg.Wait()
}
