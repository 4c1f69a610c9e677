package controller

import (
	"context"
	"time"
)

// markDirtyLocked records a mutation and schedules the save. With no debounce
// the save happens before the mutation returns.
func (c *Controller) markDirtyLocked(ctx context.Context) {
	c.dirty = true
	if c.debounce <= 0 {
		c.flushLocked(ctx)
		return
	}
	if c.timer != nil {
		// A save is already scheduled; it will write the latest state.
		return
	}
	c.timerSeq++
	seq := c.timerSeq
	c.timer = time.AfterFunc(c.debounce, func() { c.onTimer(seq) })
}

func (c *Controller) onTimer(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.timerSeq || c.closed {
		return
	}
	c.timer = nil
	c.flushLocked(c.baseCtx)
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerSeq++
}

// flushLocked writes the live snapshot if it has unsaved changes.
func (c *Controller) flushLocked(ctx context.Context) {
	if !c.dirty {
		return
	}
	c.dirty = false
	c.persistLocked(ctx)
}

// persistLocked saves the live snapshot under the current application. It is
// a no-op until the application has been loaded in this selection, so a
// transient empty graph can never overwrite a stored one.
func (c *Controller) persistLocked(ctx context.Context) {
	if c.current == "" || c.live == nil {
		return
	}
	if !c.loaded[c.current] {
		c.logger.Warn("Skipping save before load.", "app_id", c.current)
		return
	}
	if c.live.ApplicationID != c.current {
		c.logger.Error("Refusing to save snapshot owned by another application.",
			"app_id", c.current, "owner", c.live.ApplicationID)
		return
	}
	if err := c.store.Save(ctx, c.current, c.live); err != nil {
		// The store already logged it; the in-memory state stays authoritative.
		c.publishLocked(EventPersisted, err)
		return
	}
	c.publishLocked(EventPersisted, nil)
}

// Flush writes pending edits immediately.
func (c *Controller) Flush(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.flushLocked(ctx)
}
