// internal/clock/clock.go

// Package clock supplies the logical time used by ledger operations: a
// monotonically increasing height, in seconds.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() int64
}

// System reports unix seconds and never goes backwards, even if the wall
// clock does.
type System struct {
	mu   sync.Mutex
	last int64
}

func NewSystem() *System {
	return &System{}
}

func (c *System) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().Unix()
	if now < c.last {
		return c.last
	}
	c.last = now
	return now
}

type Fake struct {
	mu  sync.Mutex
	now int64
}

func NewFake(height int64) *Fake {
	return &Fake{now: height}
}

func (c *Fake) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fake) Advance(d int64) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

func (c *Fake) Set(height int64) {
	c.mu.Lock()
	c.now = height
	c.mu.Unlock()
}
