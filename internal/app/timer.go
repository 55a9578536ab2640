package app

import (
	"sync"
	"time"
)

// Ticker is the subset of time.Ticker the countdown needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers; tests substitute a manual clock.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// RealClock ticks on wall-clock time.
func RealClock() Clock { return realClock{} }

// Timer runs a callback on a fixed interval until stopped. Only one run is
// live at a time: Start stops the previous run first.
type Timer struct {
	clock    Clock
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func NewTimer(clock Clock, interval time.Duration) *Timer {
	if clock == nil {
		clock = RealClock()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Timer{clock: clock, interval: interval}
}

// Start begins ticking, replacing any previous run.
func (t *Timer) Start(onTick func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
	}
	stop := make(chan struct{})
	t.stop = stop
	ticker := t.clock.NewTicker(t.interval)
	go t.run(ticker, stop, onTick)
}

// Stop halts the current run. It never waits for the tick goroutine, so it is
// safe to call from inside onTick, and it is a no-op when not running.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}

// Running reports whether a run is live.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *Timer) run(ticker Ticker, stop <-chan struct{}, onTick func()) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			select {
			case <-stop:
				return
			default:
			}
			onTick()
		}
	}
}
