package metrics

import (
	"sync"
	"time"
)

// ChatterTracker counts distinct identities that produced a qualifying
// message within the configured window. It keeps identity → last-seen and
// filters by window at query time, so the set cannot grow without bound;
// a background ticker compacts entries that have gone stale.
type ChatterTracker struct {
	mu       sync.RWMutex
	lastSeen map[string]time.Time
	window   time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// NewChatterTracker creates a tracker with the given activity window and
// starts its compaction loop.
func NewChatterTracker(window time.Duration) *ChatterTracker {
	c := &ChatterTracker{
		lastSeen: make(map[string]time.Time),
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	go c.compactLoop()

	return c
}

// Touch marks an identity as active now.
func (c *ChatterTracker) Touch(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastSeen[id] = c.now()
}

// Count returns the number of identities seen within the window.
func (c *ChatterTracker) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cutoff := c.now().Add(-c.window)
	count := 0
	for _, seen := range c.lastSeen {
		if seen.After(cutoff) {
			count++
		}
	}

	return count
}

// Stop terminates the compaction loop.
func (c *ChatterTracker) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

// compactLoop periodically drops entries older than the window.
func (c *ChatterTracker) compactLoop() {
	ticker := time.NewTicker(c.window)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			cutoff := c.now().Add(-c.window)
			for id, seen := range c.lastSeen {
				if !seen.After(cutoff) {
					delete(c.lastSeen, id)
				}
			}
			c.mu.Unlock()
		}
	}
}
