package procinfo

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"microkern-go/klock"
	"microkern-go/proc"
)

func TestCursor_SkipsFreeSlotsAndReportsFields(t *testing.T) {
	var l klock.Lock
	table := proc.NewTable(&l)

	release := make(chan struct{})
	defer close(release)

	l.Lock()
	rootPid, err := table.ExecSelf("root")
	require.NoError(t, err)
	root, _ := table.Get(rootPid)
	_, err = table.Exec(root, func(argl int, args []byte) int {
		<-release // keep the child alive for the sweep
		return 0
	}, "child", 3, []byte("abc"))
	require.NoError(t, err)
	l.Unlock()

	cur := NewCursor(table)
	var records []Record
	buf := make([]byte, RecordSize)
	for {
		l.Lock()
		n := cur.Read(buf)
		l.Unlock()
		if n < 0 {
			break
		}
		var rec Record
		require.NoError(t, decodeInto(&rec, buf[:n]))
		records = append(records, rec)
	}

	require.Len(t, records, 2, "only the two acquired slots should be reported")
	require.Equal(t, int32(rootPid), records[0].Pid)
	require.Equal(t, "root", cString(records[0].TaskName[:]))
	require.Equal(t, int32(3), records[1].Argl)
	require.Equal(t, "abc", string(records[1].Args[:3]))
}

func TestCursor_ReadReturnsFullRecordSizeNotCopiedCount(t *testing.T) {
	var l klock.Lock
	table := proc.NewTable(&l)

	l.Lock()
	_, err := table.ExecSelf("root")
	require.NoError(t, err)
	l.Unlock()

	cur := NewCursor(table)
	small := make([]byte, 4)
	l.Lock()
	n := cur.Read(small)
	l.Unlock()

	require.Equal(t, RecordSize, n, "Read must report the full record size even when buf is undersized")
}

func decodeInto(rec *Record, b []byte) error {
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, rec)
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
