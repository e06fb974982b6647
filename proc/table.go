package proc

import (
	"github.com/petermattis/goid"

	"microkern-go/errors"
	"microkern-go/kdefs"
	"microkern-go/klock"
	"microkern-go/list"
	"microkern-go/stream"
)

// noFreeSlot marks an empty free list. It is distinct from kdefs.NOPROC
// (which is also the pid of the idle process) so the two sentinels never
// collide inside the table's own bookkeeping.
const noFreeSlot = -1

// Table is the fixed-size process table: a free-list of PCBs plus the
// goroutine-id-to-PTCB map that lets a running goroutine discover "its
// own" thread and process, standing in for the scheduler's implicit
// "current thread".
//
// Every exported method here assumes the kernel's single lock (the same
// *klock.Lock passed to NewTable) is already held by the caller, exactly
// like pipe.Pipe and socket.Manager. The only methods that acquire the
// lock themselves are the goroutine trampolines (bootstrapMain,
// bootstrapThread), which play the role of a freshly scheduled thread
// re-entering the kernel.
type Table struct {
	lock *klock.Lock

	procs    [kdefs.MaxProc]*PCB
	freeHead int

	tidSeq     int64
	selfByGoid map[int64]*PTCB
}

// NewTable returns an empty process table sharing the kernel lock l.
func NewTable(l *klock.Lock) *Table {
	t := &Table{lock: l, freeHead: noFreeSlot, selfByGoid: make(map[int64]*PTCB)}
	for i := kdefs.MaxProc - 1; i >= 0; i-- {
		t.procs[i] = &PCB{pid: Pid(i), state: stateFree, freeNext: t.freeHead}
		t.freeHead = i
	}
	return t
}

func (t *Table) acquire() (*PCB, bool) {
	if t.freeHead == noFreeSlot {
		return nil, false
	}
	idx := t.freeHead
	pcb := t.procs[idx]
	t.freeHead = pcb.freeNext

	pcb.state = stateAlive
	pcb.parent = nil
	pcb.children = list.New[*PCB]()
	pcb.exited = list.New[*PCB]()
	pcb.childHandle = list.Nil
	pcb.childExit = klock.NewCond(t.lock)
	pcb.fidt = stream.FIDT{}
	pcb.ptcbs = list.New[*PTCB]()
	pcb.liveThreads = 0
	pcb.mainThread = nil
	pcb.mainTaskName = ""
	pcb.argl = 0
	pcb.args = nil
	pcb.exitVal = 0
	return pcb, true
}

func (t *Table) release(pcb *PCB) {
	pcb.state = stateFree
	pcb.freeNext = t.freeHead
	t.freeHead = int(pcb.pid)
}

// Get returns the PCB at pid, or ok=false if pid is out of range or the
// slot is currently free.
func (t *Table) Get(pid Pid) (*PCB, bool) {
	if pid < 0 || int(pid) >= kdefs.MaxProc {
		return nil, false
	}
	pcb := t.procs[pid]
	if pcb.state == stateFree {
		return nil, false
	}
	return pcb, true
}

// At returns the PCB at table index i regardless of requester intent,
// for the procinfo cursor's linear sweep; ok is false for a FREE slot.
func (t *Table) At(i int) (*PCB, bool) {
	if i < 0 || i >= kdefs.MaxProc {
		return nil, false
	}
	pcb := t.procs[i]
	if pcb.state == stateFree {
		return nil, false
	}
	return pcb, true
}

// ThreadSelf returns the PTCB registered for the calling goroutine.
func (t *Table) ThreadSelf() (*PTCB, bool) {
	p, ok := t.selfByGoid[goid.Get()]
	return p, ok
}

func (t *Table) registerSelf(ptcb *PTCB) {
	t.selfByGoid[goid.Get()] = ptcb
}

func (t *Table) newPTCB(pcb *PCB, task kdefs.Task, argl int, args []byte) *PTCB {
	t.tidSeq++
	ptcb := &PTCB{owner: pcb, tid: kdefs.Tid_t(t.tidSeq), task: task, argl: argl, args: args}
	ptcb.exitCV = klock.NewCond(t.lock)
	ptcb.handle = pcb.ptcbs.PushBack(ptcb)
	return ptcb
}

// Exec implements sys_Exec. caller is nil only for the two
// bootstrap processes (idle, init); every other process inherits caller's
// FIDT and is linked into caller's children list.
func (t *Table) Exec(caller *PCB, task kdefs.Task, name string, argl int, args []byte) (Pid, error) {
	child, ok := t.acquire()
	if !ok {
		return NoProc, errors.ErrProcessTableFull
	}

	if caller != nil {
		child.parent = caller
		child.childHandle = caller.children.PushBack(child)
		caller.fidt.Each(func(fid kdefs.Fid_t, fcb *stream.FCB) {
			fcb.Incref()
			child.fidt.Bind(fid, fcb)
		})
	}

	if args != nil {
		n := argl
		if n > len(args) {
			n = len(args)
		}
		if n < 0 {
			n = 0
		}
		child.argl = argl
		child.args = append([]byte(nil), args[:n]...)
	}
	if name == "" {
		name = taskName(task)
	}
	child.mainTaskName = name

	if task != nil {
		ptcb := t.newPTCB(child, task, child.argl, child.args)
		child.mainThread = ptcb
		child.liveThreads = 1
		go t.bootstrapMain(child, ptcb)
	}

	return child.pid, nil
}

// ExecSelf attaches the CALLING goroutine itself as the main thread of
// a freshly acquired process, instead of spawning one. This is the seam
// that lets test and demo code act as "the" first user process without
// a real boot loader or system-call dispatcher in front of them.
func (t *Table) ExecSelf(name string) (Pid, error) {
	pcb, ok := t.acquire()
	if !ok {
		return NoProc, errors.ErrProcessTableFull
	}
	pcb.mainTaskName = name
	ptcb := t.newPTCB(pcb, nil, 0, nil)
	pcb.mainThread = ptcb
	pcb.liveThreads = 1
	t.registerSelf(ptcb)
	return pcb.pid, nil
}

func (t *Table) bootstrapMain(pcb *PCB, ptcb *PTCB) {
	t.lock.Lock()
	t.registerSelf(ptcb)
	t.lock.Unlock()

	ret := ptcb.task(ptcb.argl, ptcb.args)

	t.lock.Lock()
	t.Exit(pcb, ret)
	t.lock.Unlock()
}

// WaitChild implements sys_WaitChild.
func (t *Table) WaitChild(caller *PCB, cpid Pid) (Pid, int, error) {
	if cpid == NoProc {
		if caller.children.Empty() && caller.exited.Empty() {
			return NoProc, 0, nil
		}
		for caller.exited.Empty() {
			caller.childExit.Wait()
		}
		child, _ := caller.exited.PopFront()
		return t.reap(child)
	}

	child, ok := t.Get(cpid)
	if !ok || child.parent != caller {
		return NoProc, 0, errors.ErrNotAChild
	}
	for child.state != stateZombie {
		caller.childExit.Wait()
	}
	caller.exited.Remove(child.childHandle)
	return t.reap(child)
}

func (t *Table) reap(child *PCB) (Pid, int, error) {
	pid := child.pid
	status := child.exitVal
	t.release(child)
	return pid, status, nil
}

func (t *Table) drainChildren(pcb *PCB) {
	for !pcb.children.Empty() || !pcb.exited.Empty() {
		t.WaitChild(pcb, NoProc)
	}
}

// Exit implements sys_Exit: records the exit value, drains
// every child first if pid is init, then runs the thread-exit path for
// the calling thread.
func (t *Table) Exit(pcb *PCB, v int) {
	pcb.exitVal = v
	if pcb.pid == Pid(1) {
		t.drainChildren(pcb)
	}
	self, ok := t.ThreadSelf()
	if !ok {
		return
	}
	t.ThreadExit(pcb, self, v)
}
