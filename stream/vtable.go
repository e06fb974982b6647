// Package stream implements the file-id layer of the teaching kernel:
// FCB "file control blocks" hold a stream's reference count and its
// operations vtable; a FIDT binds per-process small integer file ids to
// FCBs. Pipes, sockets and the procinfo cursor are all just vtables
// plugged into this layer; sys_Read/sys_Write/sys_Close never know
// which.
package stream

// Vtable is the set of operations a stream object supports. A nil entry
// means the operation is unsupported on that stream and calling it
// through the FCB returns -1 (e.g. a procinfo cursor supports Read but
// never Write).
type Vtable struct {
	Open  func(streamObj any) int
	Read  func(streamObj any, buf []byte) int
	Write func(streamObj any, buf []byte) int
	Close func(streamObj any) int
}

func (v *Vtable) read(obj any, buf []byte) int {
	if v == nil || v.Read == nil {
		return -1
	}
	return v.Read(obj, buf)
}

func (v *Vtable) write(obj any, buf []byte) int {
	if v == nil || v.Write == nil {
		return -1
	}
	return v.Write(obj, buf)
}

func (v *Vtable) close(obj any) int {
	if v == nil || v.Close == nil {
		return -1
	}
	return v.Close(obj)
}
