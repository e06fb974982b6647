// Package kernel implements the thin system-call surface of the
// teaching kernel: one *Kernel wraps the process table, the socket
// manager and the single kernel lock, validates arguments, and
// collapses every typed error from proc/socket/pipe/stream into the
// plain integer/sentinel syscall surface. Every exported method
// acquires the lock once at entry and holds it for the call's whole
// body, releasing it only inside condition-variable waits.
package kernel

import (
	"log/slog"
	"runtime"

	"github.com/google/uuid"

	"microkern-go/errors"
	"microkern-go/kdefs"
	"microkern-go/klock"
	"microkern-go/logging"
	"microkern-go/pipe"
	"microkern-go/proc"
	"microkern-go/procinfo"
	"microkern-go/socket"
	"microkern-go/stream"
)

// errBadFid is logged (not returned to callers) when a fid doesn't
// resolve to the stream type a syscall expected.
var errBadFid = errors.ErrBadFid

// Kernel is the whole teaching kernel: one process table, one socket
// manager, and the lock they and every pipe share.
type Kernel struct {
	lock    klock.Lock
	table   *proc.Table
	sockets *socket.Manager
	logger  *slog.Logger
}

// New returns an empty kernel with no processes yet. Call Boot before
// issuing any other syscall.
func New() *Kernel {
	k := &Kernel{logger: logging.Default()}
	k.table = proc.NewTable(&k.lock)
	k.sockets = socket.NewManager(&k.lock)
	return k
}

// Boot creates the idle process (pid 0) and the init process (pid 1),
// then attaches the calling goroutine itself as the main thread of a
// third process, the root context demo and test code issue further
// syscalls as. See proc.Table.ExecSelf for why this seam exists.
func (k *Kernel) Boot(rootName string) kdefs.Pid_t {
	k.lock.Lock()
	defer k.lock.Unlock()

	if _, err := k.table.Exec(nil, nil, "idle", 0, nil); err != nil {
		panic("kernel: cannot create idle process: " + err.Error())
	}
	if _, err := k.table.Exec(nil, nil, "init", 0, nil); err != nil {
		panic("kernel: cannot create init process: " + err.Error())
	}
	pid, err := k.table.ExecSelf(rootName)
	if err != nil {
		panic("kernel: cannot create root process: " + err.Error())
	}
	return pid
}

// entry logs a syscall's invocation with a correlation id and returns a
// logger plus a finish func that logs the outcome.
func (k *Kernel) entry(op string) (*slog.Logger, func(err error)) {
	lg := logging.WithCorrelationID(logging.WithOperation(k.logger, op), uuid.NewString())
	lg.Debug("syscall enter")
	return lg, func(err error) {
		if err != nil {
			lg.Warn("syscall failed", slog.Any("err", err))
			return
		}
		lg.Debug("syscall ok")
	}
}

// currentPCB resolves the calling goroutine's process. Every syscall
// reaches this only from a registered kernel thread (spawned by Exec /
// CreateThread, or attached by Boot); anything else is an internal
// bug, not a user error.
func (k *Kernel) currentPCB() *proc.PCB {
	ptcb, ok := k.table.ThreadSelf()
	if !ok {
		panic("kernel: syscall invoked from an unregistered goroutine")
	}
	return ptcb.Owner()
}

// GetPid implements sys_GetPid.
func (k *Kernel) GetPid() kdefs.Pid_t {
	k.lock.Lock()
	defer k.lock.Unlock()
	return k.currentPCB().Pid()
}

// GetPPid implements sys_GetPPid.
func (k *Kernel) GetPPid() kdefs.Pid_t {
	k.lock.Lock()
	defer k.lock.Unlock()
	return k.currentPCB().PPid()
}

// Exec implements sys_Exec. name registers the task's
// human-readable identity for procinfo records.
func (k *Kernel) Exec(task kdefs.Task, name string, argl int, args []byte) kdefs.Pid_t {
	k.lock.Lock()
	defer k.lock.Unlock()
	lg, done := k.entry("sys_Exec")

	caller := k.currentPCB()
	pid, err := k.table.Exec(caller, task, name, argl, args)
	done(err)
	if err != nil {
		return kdefs.NOPROC
	}
	lg.Debug("process created", slog.Int("pid", int(pid)))
	return pid
}

// Exit implements sys_Exit. It never returns to the
// caller: like the scheduler's EXITED transition it describes, the
// calling goroutine is torn down via runtime.Goexit after kernel state is
// updated.
func (k *Kernel) Exit(exitVal int) {
	k.lock.Lock()
	pcb := k.currentPCB()
	_, done := k.entry("sys_Exit")
	k.table.Exit(pcb, exitVal)
	done(nil)
	k.lock.Unlock()
	runtime.Goexit()
}

// WaitChild implements sys_WaitChild.
func (k *Kernel) WaitChild(cpid kdefs.Pid_t, status *int) kdefs.Pid_t {
	k.lock.Lock()
	defer k.lock.Unlock()
	_, done := k.entry("sys_WaitChild")

	caller := k.currentPCB()
	pid, exitVal, err := k.table.WaitChild(caller, cpid)
	done(err)
	if err != nil {
		return kdefs.NOPROC
	}
	if pid != kdefs.NOPROC && status != nil {
		*status = exitVal
	}
	return pid
}

// OpenInfo implements sys_OpenInfo.
func (k *Kernel) OpenInfo() kdefs.Fid_t {
	k.lock.Lock()
	defer k.lock.Unlock()
	_, done := k.entry("sys_OpenInfo")

	pcb := k.currentPCB()
	cur := procinfo.NewCursor(k.table)
	fcb := stream.NewFCB(cur, procinfo.Vtable)
	fids, ok := pcb.FIDT().Reserve([]*stream.FCB{fcb})
	if !ok {
		done(errors.ErrFIDTFull)
		return kdefs.NOFILE
	}
	done(nil)
	return fids[0]
}

// CreateThread implements sys_CreateThread.
func (k *Kernel) CreateThread(task kdefs.Task, argl int, args []byte) kdefs.Tid_t {
	k.lock.Lock()
	defer k.lock.Unlock()
	_, done := k.entry("sys_CreateThread")

	if task == nil {
		done(errors.ErrNoTask)
		return kdefs.NOTHREAD
	}
	pcb := k.currentPCB()
	tid := k.table.CreateThread(pcb, task, argl, args)
	done(nil)
	return tid
}

// ThreadSelf implements sys_ThreadSelf.
func (k *Kernel) ThreadSelf() kdefs.Tid_t {
	k.lock.Lock()
	defer k.lock.Unlock()
	ptcb, ok := k.table.ThreadSelf()
	if !ok {
		return kdefs.NOTHREAD
	}
	return ptcb.Tid()
}

// ThreadJoin implements sys_ThreadJoin.
func (k *Kernel) ThreadJoin(tid kdefs.Tid_t, exitVal *int) int {
	k.lock.Lock()
	defer k.lock.Unlock()
	_, done := k.entry("sys_ThreadJoin")

	pcb := k.currentPCB()
	self, _ := k.table.ThreadSelf()
	ev, _, err := k.table.ThreadJoin(pcb, self, tid)
	done(err)
	if err != nil {
		return -1
	}
	if exitVal != nil {
		*exitVal = ev
	}
	return 0
}

// ThreadDetach implements sys_ThreadDetach.
func (k *Kernel) ThreadDetach(tid kdefs.Tid_t) int {
	k.lock.Lock()
	defer k.lock.Unlock()
	_, done := k.entry("sys_ThreadDetach")

	pcb := k.currentPCB()
	err := k.table.ThreadDetach(pcb, tid)
	done(err)
	if err != nil {
		return -1
	}
	return 0
}

// ThreadExit implements sys_ThreadExit. Like Exit, it
// never returns.
func (k *Kernel) ThreadExit(exitVal int) {
	k.lock.Lock()
	pcb := k.currentPCB()
	self, _ := k.table.ThreadSelf()
	_, done := k.entry("sys_ThreadExit")
	k.table.ThreadExit(pcb, self, exitVal)
	done(nil)
	k.lock.Unlock()
	runtime.Goexit()
}

// Pipe implements sys_Pipe.
func (k *Kernel) Pipe(p *kdefs.PipeT) int {
	k.lock.Lock()
	defer k.lock.Unlock()
	_, done := k.entry("sys_Pipe")

	pcb := k.currentPCB()
	pp := pipe.New(&k.lock)
	readFCB := stream.NewFCB(pp, pipe.ReadEndOps)
	writeFCB := stream.NewFCB(pp, pipe.WriteEndOps)
	fids, ok := pcb.FIDT().Reserve([]*stream.FCB{readFCB, writeFCB})
	if !ok {
		done(errors.ErrFIDTFull)
		return -1
	}
	p.Read, p.Write = fids[0], fids[1]
	done(nil)
	return 0
}

// Read implements Read(fid) for any stream.
func (k *Kernel) Read(fid kdefs.Fid_t, buf []byte) int {
	k.lock.Lock()
	defer k.lock.Unlock()
	pcb := k.currentPCB()
	fcb, ok := pcb.FIDT().Get(fid)
	if !ok {
		return -1
	}
	return fcb.Read(buf)
}

// Write implements Write(fid) for any stream.
func (k *Kernel) Write(fid kdefs.Fid_t, buf []byte) int {
	k.lock.Lock()
	defer k.lock.Unlock()
	pcb := k.currentPCB()
	fcb, ok := pcb.FIDT().Get(fid)
	if !ok {
		return -1
	}
	return fcb.Write(buf)
}

// Close implements Close(fid) for any stream.
func (k *Kernel) Close(fid kdefs.Fid_t) int {
	k.lock.Lock()
	defer k.lock.Unlock()
	pcb := k.currentPCB()
	fcb, ok := pcb.FIDT().Get(fid)
	if !ok {
		return -1
	}
	pcb.FIDT().Release(fid)
	fcb.Decref()
	return 0
}
