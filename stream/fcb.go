package stream

// FCB is a file control block: the reference-counted, vtable-dispatched
// object a Fid_t ultimately resolves to. Two fids can name the same
// FCB: a child process created by Exec inherits its parent's table
// entry by entry, each shared FCB's refcount bumped once per holder.
type FCB struct {
	refcount  int
	streamObj any
	ops       *Vtable
}

// NewFCB returns a stream control block with refcount 1, wrapping obj
// and dispatching operations through ops.
func NewFCB(obj any, ops *Vtable) *FCB {
	return &FCB{refcount: 1, streamObj: obj, ops: ops}
}

// StreamObj returns the underlying stream object (a *pipe.Pipe,
// *socket.SCB, or *procinfo.Cursor), for callers that need to downcast.
func (f *FCB) StreamObj() any { return f.streamObj }

// Incref adds one reference to f, for example when a second fid is
// reserved against the same underlying stream.
func (f *FCB) Incref() { f.refcount++ }

// Decref removes one reference from f. When the count reaches zero it
// invokes the stream's Close operation and reports true, telling the
// caller the FCB is now dead and its fid slot(s) should be released.
func (f *FCB) Decref() bool {
	f.refcount--
	if f.refcount > 0 {
		return false
	}
	f.ops.close(f.streamObj)
	return true
}

// Read dispatches to the stream's Read operation, or -1 if unsupported.
func (f *FCB) Read(buf []byte) int {
	return f.ops.read(f.streamObj, buf)
}

// Write dispatches to the stream's Write operation, or -1 if unsupported.
func (f *FCB) Write(buf []byte) int {
	return f.ops.write(f.streamObj, buf)
}

// Close forces the stream closed regardless of refcount, going through
// the vtable exactly once. A process exiting sweeps its FIDT with
// Decref, not Close.
func (f *FCB) Close() int {
	return f.ops.close(f.streamObj)
}
