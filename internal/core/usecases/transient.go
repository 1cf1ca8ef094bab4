package usecases

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// transientMessage holds a user-visible error message that clears itself
// after a few seconds. External-service failures surface through this and
// nothing else; they never propagate as hard errors to the map core.
type transientMessage struct {
	clk clock.Clock
	ttl time.Duration

	mu    sync.Mutex
	msg   string
	timer *clock.Timer
	gen   int
}

func newTransientMessage(clk clock.Clock, ttl time.Duration) *transientMessage {
	return &transientMessage{clk: clk, ttl: ttl}
}

func (t *transientMessage) set(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
	}
	t.msg = msg
	t.timer = t.clk.AfterFunc(t.ttl, func() {
		t.expire(gen)
	})
}

func (t *transientMessage) get() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.msg
}

func (t *transientMessage) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.msg = ""
}

func (t *transientMessage) expire(gen int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}
	t.msg = ""
	t.timer = nil
}
