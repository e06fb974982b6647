package proc

import (
	"microkern-go/kdefs"
	"microkern-go/klock"
	"microkern-go/list"
)

type threadState int

const (
	threadRunning threadState = iota
	threadExited
)

// PTCB is a thread control block: one per spawned "kernel thread" (a
// goroutine in this simulation), owned by exactly one PCB.
type PTCB struct {
	owner *PCB
	tid   kdefs.Tid_t

	task kdefs.Task
	argl int
	args []byte

	state    threadState
	detached bool
	exitVal  int
	exitCV   *klock.Cond
	refcount int // joiners currently waiting on this PTCB

	handle list.Handle // this PTCB's handle in owner.ptcbs
}

// Tid returns the thread's id.
func (t *PTCB) Tid() kdefs.Tid_t { return t.tid }

// Owner returns the PCB the thread belongs to.
func (t *PTCB) Owner() *PCB { return t.owner }

// Exited reports whether the thread has already run to completion.
func (t *PTCB) Exited() bool { return t.state == threadExited }
