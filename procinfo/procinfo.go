// Package procinfo implements the read-only process-table cursor
// stream: sys_OpenInfo hands back a stream that yields one fixed-size
// record per Read call, skipping FREE process-table slots.
package procinfo

import (
	"bytes"
	"encoding/binary"

	"microkern-go/kdefs"
	"microkern-go/proc"
	"microkern-go/stream"
)

// maxTaskNameLen bounds the task-name field copied into each record.
// The main task is reported as a registered name rather than a raw
// function pointer, since Go function values have no stable address to
// expose.
const maxTaskNameLen = 64

// Record is the fixed-size procinfo record copied into a caller's
// buffer.
type Record struct {
	Pid         int32
	PPid        int32
	Alive       int32
	ThreadCount int32
	Argl        int32
	TaskName    [maxTaskNameLen]byte
	Args        [kdefs.MaxArgPayload]byte
}

// RecordSize is the wire size of a Record, computed once.
var RecordSize = binary.Size(Record{})

// Cursor is the stream object behind an OpenInfo fid: a linear sweep over
// the process table starting at index 0.
type Cursor struct {
	table *proc.Table
	idx   int
}

// NewCursor returns a cursor positioned before the first table slot.
func NewCursor(t *proc.Table) *Cursor {
	return &Cursor{table: t}
}

// Read advances the cursor past FREE slots and copies the next ALIVE or
// ZOMBIE PCB's record into buf, returning the record size, or -1 once the
// table is exhausted.
func (c *Cursor) Read(buf []byte) int {
	for {
		if c.idx >= kdefs.MaxProc {
			return -1
		}
		pcb, ok := c.table.At(c.idx)
		c.idx++
		if !ok {
			continue
		}

		rec := Record{
			Pid:         int32(pcb.Pid()),
			PPid:        int32(pcb.PPid()),
			ThreadCount: int32(pcb.ThreadCount()),
			Argl:        int32(pcb.Argl()),
		}
		if pcb.Alive() {
			rec.Alive = 1
		}
		copy(rec.TaskName[:], pcb.MainTaskName())
		copy(rec.Args[:], pcb.Args())

		var out bytes.Buffer
		out.Grow(RecordSize)
		binary.Write(&out, binary.LittleEndian, rec) //nolint:errcheck // bytes.Buffer never errors
		copy(buf, out.Bytes())
		return out.Len()
	}
}

// Vtable is the stream operations bound to every OpenInfo fid: Read
// only (Write always fails); Close just drops the cursor.
var Vtable = &stream.Vtable{
	Read: func(obj any, buf []byte) int {
		return obj.(*Cursor).Read(buf)
	},
	Close: func(obj any) int {
		return 0
	},
}
