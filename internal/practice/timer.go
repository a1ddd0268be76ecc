package practice

import (
	"sync"
	"time"
)

// ticker runs tick periodically on its own goroutine until tick returns false or Stop is called.
type ticker struct {
	stop   chan struct{}
	once   sync.Once
	onStop func()
}

func newTicker(onStop func()) *ticker {
	return &ticker{
		stop:   make(chan struct{}),
		onStop: onStop,
	}
}

func (t *ticker) start(interval time.Duration, tick func() bool) {
	go func() {
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-tk.C:
				if !tick() {
					t.Stop()
					return
				}
			}
		}
	}()
}

// Stop is safe to call more than once and from the ticking goroutine itself.
func (t *ticker) Stop() {
	t.once.Do(func() {
		close(t.stop)
		if t.onStop != nil {
			t.onStop()
		}
	})
}
