// Package klock provides the single global lock and the condition
// variables that serialize every kernel data structure: the
// process table, every PCB/PTCB, every FCB, the pipe ring buffers and the
// socket port map are all protected by one Lock, never a lock per object.
package klock

import (
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Lock is the kernel's single global mutex. It is a deadlock-detecting
// drop-in for sync.Mutex: held across every Sys* call body, acquired once
// at entry and released once at exit, with waits against a Cond dropping
// and reacquiring it internally.
type Lock = deadlock.Mutex

// Cond is a condition variable associated with a Lock. It wraps
// sync.Cond and adds TimedWait for sys_Connect's deadline.
type Cond struct {
	cond *sync.Cond
}

// condLocker adapts a *Lock (deadlock.Mutex) to the sync.Locker interface
// sync.Cond requires.
type condLocker struct {
	l *Lock
}

func (c condLocker) Lock()   { c.l.Lock() }
func (c condLocker) Unlock() { c.l.Unlock() }

// NewCond returns a Cond whose Wait/Signal/Broadcast operate against l.
// l must already be held whenever Wait, Signal or Broadcast is called,
// exactly as sync.Cond requires.
func NewCond(l *Lock) *Cond {
	return &Cond{cond: sync.NewCond(condLocker{l})}
}

// Wait atomically unlocks the Cond's Lock and suspends the calling
// goroutine, then relocks before returning. It must be called with the
// lock held.
func (c *Cond) Wait() {
	c.cond.Wait()
}

// Signal wakes one goroutine waiting on c, if any.
func (c *Cond) Signal() {
	c.cond.Signal()
}

// Broadcast wakes every goroutine waiting on c.
func (c *Cond) Broadcast() {
	c.cond.Broadcast()
}

// TimedWait waits on c until either another goroutine signals/broadcasts
// it, or deadline passes, whichever comes first. It reports whether it
// woke because the deadline elapsed. Like Wait, it must be called with
// the lock held, and returns with the lock held.
//
// sync.Cond has no native timeout, so this arms a timer that broadcasts
// the condition at the deadline; the caller re-checks its own predicate
// after TimedWait returns, same as after a plain Wait.
func (c *Cond) TimedWait(deadline time.Time) (timedOut bool) {
	d := time.Until(deadline)
	if d <= 0 {
		return true
	}
	timer := time.AfterFunc(d, func() {
		c.Broadcast()
	})
	defer timer.Stop()
	c.Wait()
	return time.Now().After(deadline) || time.Now().Equal(deadline)
}
