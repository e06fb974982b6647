package proc

import (
	"github.com/petermattis/goid"

	"microkern-go/errors"
	"microkern-go/kdefs"
	"microkern-go/list"
	"microkern-go/stream"
)

// CreateThread implements sys_CreateThread. task must be non-nil; the
// kernel wrapper is responsible for rejecting a nil task with NOTHREAD.
func (t *Table) CreateThread(pcb *PCB, task kdefs.Task, argl int, args []byte) kdefs.Tid_t {
	ptcb := t.newPTCB(pcb, task, argl, args)
	pcb.liveThreads++
	go t.bootstrapThread(pcb, ptcb)
	return ptcb.tid
}

func (t *Table) bootstrapThread(pcb *PCB, ptcb *PTCB) {
	t.lock.Lock()
	t.registerSelf(ptcb)
	t.lock.Unlock()

	ret := ptcb.task(ptcb.argl, ptcb.args)

	t.lock.Lock()
	t.ThreadExit(pcb, ptcb, ret)
	t.lock.Unlock()
}

func (t *Table) findPTCB(pcb *PCB, tid kdefs.Tid_t) (list.Handle, *PTCB, bool) {
	h, ok := pcb.ptcbs.Find(func(p *PTCB) bool { return p.tid == tid })
	if !ok {
		return list.Nil, nil, false
	}
	return h, pcb.ptcbs.Value(h), true
}

// ThreadJoin implements sys_ThreadJoin.
func (t *Table) ThreadJoin(pcb *PCB, caller *PTCB, tid kdefs.Tid_t) (exitVal int, ok bool, err error) {
	h, target, found := t.findPTCB(pcb, tid)
	if !found {
		return 0, false, errors.ErrUnknownThread
	}
	if target == caller {
		return 0, false, errors.ErrJoinSelf
	}
	if target.detached {
		return 0, false, errors.ErrThreadDetached
	}

	target.refcount++
	for !target.Exited() && !target.detached {
		target.exitCV.Wait()
	}
	target.refcount--

	if target.detached {
		return 0, false, errors.ErrThreadDetached
	}

	exitVal = target.exitVal
	if target.refcount == 0 {
		pcb.ptcbs.Remove(h)
	}
	return exitVal, true, nil
}

// ThreadDetach implements sys_ThreadDetach.
func (t *Table) ThreadDetach(pcb *PCB, tid kdefs.Tid_t) error {
	if tid == kdefs.NOTHREAD {
		return errors.ErrUnknownThread
	}
	_, target, ok := t.findPTCB(pcb, tid)
	if !ok {
		return errors.ErrUnknownThread
	}
	if target.Exited() {
		return errors.ErrThreadExited
	}
	target.detached = true
	target.exitCV.Broadcast()
	return nil
}

// ThreadExit implements sys_ThreadExit: marks ptcb exited, wakes
// joiners, and runs process teardown if this was the process's last
// live thread and it isn't pid 0 or pid 1. It runs on the exiting
// goroutine itself, so it also retires that goroutine's self
// registration before the goroutine unwinds.
func (t *Table) ThreadExit(pcb *PCB, ptcb *PTCB, v int) {
	ptcb.exitVal = v
	ptcb.state = threadExited
	ptcb.exitCV.Broadcast()
	delete(t.selfByGoid, goid.Get())
	pcb.liveThreads--
	if pcb.liveThreads == 0 && pcb.pid > 1 {
		t.teardown(pcb)
	}
}

// teardown dismantles a process whose last thread just exited: reparent
// live children to pid 1, move this process's own exited children onto
// pid 1's exited list and broadcast, THEN link self into the parent's
// exited list and broadcast the parent, all before releasing any
// resources, with no unlock between the two broadcasts.
func (t *Table) teardown(pcb *PCB) {
	if pcb.pid > 1 {
		initProc := t.procs[1]

		pcb.children.ForEach(func(_ list.Handle, c *PCB) bool {
			c.parent = initProc
			c.childHandle = initProc.children.PushBack(c)
			return true
		})
		pcb.children = list.New[*PCB]()

		// list.Splice would move values without updating their stored
		// childHandle, leaving each grandchild's handle pointing at a
		// node index in the old (now-abandoned) list rather than in
		// initProc.exited; PushBack one at a time and refresh the
		// handle so a later WaitChild(initProc, cpid) removes the
		// right node.
		for {
			c, ok := pcb.exited.PopFront()
			if !ok {
				break
			}
			c.parent = initProc
			c.childHandle = initProc.exited.PushBack(c)
		}
		initProc.childExit.Broadcast()

		if parent := pcb.parent; parent != nil {
			parent.children.Remove(pcb.childHandle)
			pcb.childHandle = parent.exited.PushBack(pcb)
			parent.childExit.Broadcast()
		}
	}

	pcb.args = nil
	pcb.fidt.Each(func(fid kdefs.Fid_t, fcb *stream.FCB) {
		fcb.Decref()
		pcb.fidt.Release(fid)
	})

	if pcb.mainThread != nil {
		pcb.mainThread.detached = true
		pcb.mainThread.exitCV.Broadcast()
	}

	pcb.state = stateZombie
}
