package client

import (
	"sync"
	"sync/atomic"
	"time"
)

// Countdown is the scheduled redirect shown on the confirmation screen.
// It ticks once per interval and calls redirect when it reaches zero,
// unless it is cancelled first.
type Countdown struct {
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
	fired atomic.Bool
}

// StartCountdown begins counting down conf.RedirectAfterSeconds. onTick may be nil.
func StartCountdown(conf *Confirmation, tick time.Duration, onTick func(remaining int), redirect func(url string)) *Countdown {
	c := &Countdown{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go c.run(conf.RedirectAfterSeconds, conf.RedirectURL, tick, onTick, redirect)
	return c
}

func (c *Countdown) run(seconds int, url string, tick time.Duration, onTick func(int), redirect func(string)) {
	defer close(c.done)

	timer := time.NewTimer(tick)
	defer timer.Stop()

	for remaining := seconds; remaining > 0; remaining-- {
		if onTick != nil {
			onTick(remaining)
		}
		select {
		case <-c.stop:
			return
		case <-timer.C:
			timer.Reset(tick)
		}
	}

	select {
	case <-c.stop:
		return
	default:
	}
	c.fired.Store(true)
	redirect(url)
}

// Cancel stops the countdown and reports whether it was stopped before the redirect
func (c *Countdown) Cancel() bool {
	c.once.Do(func() { close(c.stop) })
	<-c.done
	return !c.fired.Load()
}

// Done is closed once the countdown has fired or been cancelled
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// Fired reports whether the redirect ran
func (c *Countdown) Fired() bool {
	return c.fired.Load()
}
