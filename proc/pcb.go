// Package proc implements the process and thread control layer of the
// teaching kernel. PCBs and PTCBs live in one package: the process
// table owns both, and a separate proc/thread split would only buy an
// import cycle.
package proc

import (
	"microkern-go/kdefs"
	"microkern-go/klock"
	"microkern-go/list"
	"microkern-go/stream"
)

// Pid and NoProc alias kdefs' types so the rest of this package can stay
// terse; callers outside the package should still spell kdefs.Pid_t.
type Pid = kdefs.Pid_t

const NoProc = kdefs.NOPROC

type pcbState int

const (
	stateFree pcbState = iota
	stateAlive
	stateZombie
)

// PCB is a process control block: the process table slot backing one
// pid, carrying its parent link, children and exited-children lists,
// FIDT, live-thread count and exit value.
type PCB struct {
	pid   Pid
	state pcbState

	// freeNext links this PCB into the table's free list while state ==
	// stateFree; meaningless otherwise. A plain index, kept separate
	// from parent rather than overloading it.
	freeNext int

	parent      *PCB
	children    *list.List[*PCB]
	exited      *list.List[*PCB]
	childHandle list.Handle // this PCB's handle in parent.children or parent.exited
	childExit   *klock.Cond

	fidt stream.FIDT

	ptcbs       *list.List[*PTCB]
	liveThreads int
	mainThread  *PTCB

	mainTaskName string
	argl         int
	args         []byte
	exitVal      int
}

// Pid returns the process's pid.
func (p *PCB) Pid() Pid { return p.pid }

// PPid returns the pid of the process's parent, or kdefs.NOPROC for a
// process created without one (idle, init, and a process attached by
// ExecSelf). Children of an exited process are reparented to init and
// report pid 1.
func (p *PCB) PPid() Pid {
	if p.parent == nil {
		return NoProc
	}
	return p.parent.pid
}

// FIDT returns the process's file-id table.
func (p *PCB) FIDT() *stream.FIDT { return &p.fidt }

// ThreadCount returns the number of live (non-exited) threads.
func (p *PCB) ThreadCount() int { return p.liveThreads }

// MainTaskName returns the registered name of the process's entry-point
// task, for procinfo records (see the main_task design note).
func (p *PCB) MainTaskName() string { return p.mainTaskName }

// Argl and Args expose the process's argument buffer for procinfo.
func (p *PCB) Argl() int    { return p.argl }
func (p *PCB) Args() []byte { return p.args }
func (p *PCB) Alive() bool  { return p.state == stateAlive }
func (p *PCB) Zombie() bool { return p.state == stateZombie }
func (p *PCB) ExitVal() int { return p.exitVal }
