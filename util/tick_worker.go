package util

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"go.uber.org/zap"
)

// TickWorker calls fn every interval until stopped. Calls never overlap; a
// tick that arrives while fn is still running is dropped. A panic in fn is
// logged and the worker keeps ticking.
type TickWorker struct {
	stop         chan struct{}
	tickInterval time.Duration
	wg           *sync.WaitGroup
	name         string
	fn           func()
	running      atomic.Bool
	runs         atomic.Int64
}

func NewTickWorker(name string, interval time.Duration, stop chan struct{}, fn func(), wg *sync.WaitGroup) *TickWorker {
	return &TickWorker{
		stop:         stop,
		tickInterval: interval,
		wg:           wg,
		fn:           fn,
		name:         name,
	}
}

func (tw *TickWorker) Start() {
	ticker := time.NewTicker(tw.tickInterval)
	tw.running.Store(true)
	tw.wg.Add(1)
	go func() {
		defer tw.wg.Done()
		defer tw.running.Store(false)
		for {
			select {
			case <-ticker.C:
				tw.tick()
			case <-tw.stop:
				logger.Info("stopping tick worker", zap.String("worker", tw.name), zap.Int64("runs", tw.runs.Load()))
				ticker.Stop()
				return
			}
		}
	}()
	logger.Info("tick worker started", zap.String("worker", tw.name), zap.Duration("interval", tw.tickInterval))
}

func (tw *TickWorker) tick() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tick worker run panicked", zap.String("worker", tw.name), zap.Any("panic", r))
		}
	}()
	tw.runs.Add(1)
	tw.fn()
}

func (tw *TickWorker) Stop() {
	tw.stop <- struct{}{}
}

func (tw *TickWorker) IsRunning() bool {
	return tw.running.Load()
}

// Runs is how many times fn has been called.
func (tw *TickWorker) Runs() int64 {
	return tw.runs.Load()
}
