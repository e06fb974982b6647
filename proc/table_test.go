package proc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"microkern-go/kdefs"
	"microkern-go/klock"
	"microkern-go/stream"
)

func newTestTable(t *testing.T) (*klock.Lock, *Table) {
	t.Helper()
	l := &klock.Lock{}
	return l, NewTable(l)
}

func noop(argl int, args []byte) int { return 0 }

func TestTable_ExecSelfOnFreshTable(t *testing.T) {
	l, table := newTestTable(t)
	l.Lock()
	rootPid, err := table.ExecSelf("root")
	require.NoError(t, err)
	require.Equal(t, Pid(0), rootPid, "first acquired slot is always index 0 in a fresh table")
	l.Unlock()

	root, ok := table.Get(rootPid)
	require.True(t, ok)
	require.Equal(t, "root", root.MainTaskName())
	require.Equal(t, NoProc, root.PPid())
}

func TestTable_ExecSpawnsChildAndWaitChildReaps(t *testing.T) {
	l, table := newTestTable(t)

	// Reserve pid 0 and pid 1 the way Kernel.Boot does: pid 1 is special
	// (teardown only notifies a waiting parent once pid > 1, since pid 1
	// is always init and nobody waits on it explicitly), so a test that
	// wants an ordinary waitable child must not let it land on pid 1.
	l.Lock()
	_, err := table.Exec(nil, nil, "idle", 0, nil)
	require.NoError(t, err)
	_, err = table.Exec(nil, nil, "init", 0, nil)
	require.NoError(t, err)
	rootPid, err := table.ExecSelf("root")
	require.NoError(t, err)
	root, _ := table.Get(rootPid)

	childTask := func(argl int, args []byte) int { return 42 }
	childPid, err := table.Exec(root, childTask, "child", 0, nil)
	require.NoError(t, err)
	l.Unlock()

	l.Lock()
	pid, status, err := table.WaitChild(root, childPid)
	l.Unlock()

	require.NoError(t, err)
	require.Equal(t, childPid, pid)
	require.Equal(t, 42, status)

	_, ok := table.Get(childPid)
	require.False(t, ok, "reaped child's slot must be freed")
}

func TestTable_ExecInheritsCallerFIDT(t *testing.T) {
	l, table := newTestTable(t)

	l.Lock()
	rootPid, err := table.ExecSelf("root")
	require.NoError(t, err)
	root, _ := table.Get(rootPid)

	fcb := stream.NewFCB(struct{}{}, &stream.Vtable{})
	fids, ok := root.FIDT().Reserve([]*stream.FCB{fcb})
	require.True(t, ok)

	childPid, err := table.Exec(root, nil, "child", 0, nil)
	require.NoError(t, err)
	child, _ := table.Get(childPid)
	l.Unlock()

	childFCB, ok := child.FIDT().Get(fids[0])
	require.True(t, ok, "child must inherit the parent's open fid")
	require.Same(t, fcb, childFCB)
}

func TestTable_WaitChildNoProcWithNoChildrenReturnsImmediately(t *testing.T) {
	l, table := newTestTable(t)

	l.Lock()
	rootPid, err := table.ExecSelf("root")
	require.NoError(t, err)
	root, _ := table.Get(rootPid)
	pid, status, err := table.WaitChild(root, NoProc)
	l.Unlock()

	require.NoError(t, err)
	require.Equal(t, NoProc, pid)
	require.Equal(t, 0, status)
}

func TestTable_WaitChildRejectsNonChild(t *testing.T) {
	l, table := newTestTable(t)

	l.Lock()
	p1Pid, _ := table.ExecSelf("p1")
	p1, _ := table.Get(p1Pid)
	otherPid, err := table.Exec(p1, noop, "other", 0, nil)
	require.NoError(t, err)

	_, _, err = table.WaitChild(p1, kdefs.Pid_t(int(otherPid)+999))
	l.Unlock()
	require.Error(t, err)
}

func TestTable_ExitDrainsChildrenForInit(t *testing.T) {
	l, table := newTestTable(t)

	l.Lock()
	_, err := table.Exec(nil, nil, "idle", 0, nil)
	require.NoError(t, err)
	initPid, err := table.Exec(nil, nil, "init", 0, nil)
	require.NoError(t, err)
	init, _ := table.Get(initPid)

	grandchildPid, err := table.Exec(init, noop, "orphan", 0, nil)
	require.NoError(t, err)
	l.Unlock()

	l.Lock()
	table.Exit(init, 0)
	l.Unlock()

	_, ok := table.Get(grandchildPid)
	require.False(t, ok, "init's Exit must drain and reap its own children")
}

// TestTable_ZombieGrandchildReparentsToInitWithWorkingHandle exercises the
// splice path in teardown: a process that exits while still owning an
// unreaped zombie child must hand that zombie to init, and init's own
// exited-list handle for the reparented zombie must actually work (a
// handle copied from the wrong list, or left stale, makes a later
// WaitChild(init, NoProc) corrupt the list or never find it).
func TestTable_ZombieGrandchildReparentsToInitWithWorkingHandle(t *testing.T) {
	l, table := newTestTable(t)

	l.Lock()
	_, err := table.Exec(nil, nil, "idle", 0, nil)
	require.NoError(t, err)
	initPid, err := table.Exec(nil, nil, "init", 0, nil)
	require.NoError(t, err)
	init, _ := table.Get(initPid)

	parentPid, err := table.ExecSelf("parent")
	require.NoError(t, err)
	parent, _ := table.Get(parentPid)

	grandchildPid, err := table.Exec(parent, func(argl int, args []byte) int { return 5 }, "grandchild", 0, nil)
	require.NoError(t, err)
	l.Unlock()

	// The grandchild's task body runs on its own goroutine; wait for it to
	// become a zombie of parent without being reaped.
	require.Eventually(t, func() bool {
		l.Lock()
		defer l.Unlock()
		gc, ok := table.Get(grandchildPid)
		return ok && gc.Zombie()
	}, time.Second, 2*time.Millisecond)

	l.Lock()
	table.Exit(parent, 0)
	l.Unlock()

	// Wait for this specific reparented pid rather than NoProc: that path
	// removes the zombie via its stored childHandle, which is exactly the
	// value the splice-into-init step must get right.
	l.Lock()
	pid, status, err := table.WaitChild(init, grandchildPid)
	l.Unlock()

	require.NoError(t, err)
	require.Equal(t, grandchildPid, pid)
	require.Equal(t, 5, status)

	_, ok := table.Get(grandchildPid)
	require.False(t, ok, "reaped grandchild's slot must be freed")
}
