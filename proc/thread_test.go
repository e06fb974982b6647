package proc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"microkern-go/errors"
	"microkern-go/kdefs"
	"microkern-go/klock"
)

func TestTable_CreateThreadAndJoinReturnsExitValue(t *testing.T) {
	l, table := newTestTable(t)

	l.Lock()
	rootPid, err := table.ExecSelf("root")
	require.NoError(t, err)
	root, _ := table.Get(rootPid)
	self, _ := table.ThreadSelf()

	tid := table.CreateThread(root, func(argl int, args []byte) int {
		return 7
	}, 0, nil)
	require.NotEqual(t, kdefs.NOTHREAD, tid)
	l.Unlock()

	l.Lock()
	exitVal, ok, err := table.ThreadJoin(root, self, tid)
	l.Unlock()

	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 7, exitVal)
}

func TestTable_ThreadJoinUnknownThreadFails(t *testing.T) {
	l, table := newTestTable(t)

	l.Lock()
	rootPid, _ := table.ExecSelf("root")
	root, _ := table.Get(rootPid)
	self, _ := table.ThreadSelf()
	_, _, err := table.ThreadJoin(root, self, kdefs.Tid_t(99999))
	l.Unlock()

	require.ErrorIs(t, err, errors.ErrUnknownThread)
}

func TestTable_ThreadDetachThenJoinFails(t *testing.T) {
	l, table := newTestTable(t)

	l.Lock()
	rootPid, _ := table.ExecSelf("root")
	root, _ := table.Get(rootPid)
	self, _ := table.ThreadSelf()

	release := make(chan struct{})
	tid := table.CreateThread(root, func(argl int, args []byte) int {
		<-release
		return 1
	}, 0, nil)

	err := table.ThreadDetach(root, tid)
	l.Unlock()
	require.NoError(t, err)

	close(release)
	time.Sleep(20 * time.Millisecond)

	l.Lock()
	_, _, err = table.ThreadJoin(root, self, tid)
	l.Unlock()
	require.ErrorIs(t, err, errors.ErrThreadDetached)
}

// TestTable_ThreadJoinFromOtherGoroutine joins a short-lived thread from
// a goroutine that is not itself a registered thread (caller nil): the
// join must block until the thread exits and return its exit value.
func TestTable_ThreadJoinFromOtherGoroutine(t *testing.T) {
	var l klock.Lock
	table := NewTable(&l)

	l.Lock()
	rootPid, _ := table.ExecSelf("root")
	root, _ := table.Get(rootPid)

	tid := table.CreateThread(root, func(argl int, args []byte) int {
		time.Sleep(10 * time.Millisecond)
		return 3
	}, 0, nil)
	l.Unlock()

	done := make(chan int, 1)
	go func() {
		l.Lock()
		ev, ok, err := table.ThreadJoin(root, nil, tid)
		l.Unlock()
		if err != nil || !ok {
			done <- -1
			return
		}
		done <- ev
	}()

	select {
	case ev := <-done:
		require.Equal(t, 3, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("ThreadJoin never returned")
	}
}
