// Package errors provides predefined sentinel errors for the
// teaching kernel's recurring failure cases.
package errors

// Process lifecycle errors.
var (
	// ErrNoSuchProcess indicates the pid does not name a live process.
	ErrNoSuchProcess = &KernelError{Kind: ErrNotFound, Detail: "no such process"}

	// ErrNotAChild indicates the pid does not name a child of the caller.
	ErrNotAChild = &KernelError{Kind: ErrWrongState, Detail: "not a child of the calling process"}

	// ErrProcessTableFull indicates the process table has no free PCB.
	ErrProcessTableFull = &KernelError{Kind: ErrResourceExhausted, Detail: "process table exhausted"}

	// ErrNoTask indicates CreateThread was called with a nil task.
	ErrNoTask = &KernelError{Kind: ErrInvalidArg, Detail: "nil task"}
)

// Thread errors.
var (
	// ErrUnknownThread indicates the tid is not in the calling process's
	// PTCB list.
	ErrUnknownThread = &KernelError{Kind: ErrNotFound, Detail: "unknown thread id"}

	// ErrJoinSelf indicates a thread tried to join itself.
	ErrJoinSelf = &KernelError{Kind: ErrWrongState, Detail: "a thread cannot join itself"}

	// ErrThreadDetached indicates a join targeted a thread that was
	// already detached, or was detached while the join waited.
	ErrThreadDetached = &KernelError{Kind: ErrWrongState, Detail: "thread is detached"}

	// ErrThreadExited indicates Detach was called on an already-exited thread.
	ErrThreadExited = &KernelError{Kind: ErrWrongState, Detail: "thread has already exited"}
)

// Stream / descriptor errors.
var (
	// ErrFIDTFull indicates the calling process has no free file ids.
	ErrFIDTFull = &KernelError{Kind: ErrResourceExhausted, Detail: "no free file descriptors"}

	// ErrBadFid indicates the fid does not name an open stream.
	ErrBadFid = &KernelError{Kind: ErrNotFound, Detail: "bad file descriptor"}

	// ErrUnsupportedOp indicates the stream's vtable has a nil entry for
	// the requested operation.
	ErrUnsupportedOp = &KernelError{Kind: ErrInvalidArg, Detail: "operation not supported on this stream"}
)

// Pipe errors.
var (
	// ErrReaderClosed indicates a write was attempted after the reader closed.
	ErrReaderClosed = &KernelError{Kind: ErrPeerClosed, Detail: "pipe reader closed"}

	// ErrPipeAlreadyClosed indicates a redundant Close of one pipe half.
	ErrPipeAlreadyClosed = &KernelError{Kind: ErrWrongState, Detail: "pipe half already closed"}

	// ErrBadLength indicates a read/write was called with n < 1.
	ErrBadLength = &KernelError{Kind: ErrInvalidArg, Detail: "length must be >= 1"}
)

// Socket errors.
var (
	// ErrBadPort indicates a port outside 0..MaxPort, or NOPORT where
	// Listen or Connect needs a port in 1..MaxPort.
	ErrBadPort = &KernelError{Kind: ErrInvalidArg, Detail: "port out of range"}

	// ErrPortBound indicates Listen was called on a port already bound
	// to a listener.
	ErrPortBound = &KernelError{Kind: ErrWrongState, Detail: "port already has a listener"}

	// ErrNoListener indicates Connect targeted a port with no listener.
	ErrNoListener = &KernelError{Kind: ErrWrongState, Detail: "no listener on port"}

	// ErrNotUnbound indicates Listen/Connect was called on a socket that
	// is already a LISTENER or PEER.
	ErrNotUnbound = &KernelError{Kind: ErrWrongState, Detail: "socket is not unbound"}

	// ErrNotListener indicates Accept was called on a non-LISTENER socket.
	ErrNotListener = &KernelError{Kind: ErrWrongState, Detail: "socket is not a listener"}

	// ErrNotPeer indicates Read/Write/ShutDown was attempted on a socket
	// that is not a connected PEER.
	ErrNotPeer = &KernelError{Kind: ErrWrongState, Detail: "socket is not connected"}

	// ErrListenerClosed indicates the listener was closed while Accept or
	// Connect was blocked on it.
	ErrListenerClosed = &KernelError{Kind: ErrPeerClosed, Detail: "listener closed"}

	// ErrConnectTimedOut indicates Connect's timeout elapsed unadmitted.
	ErrConnectTimedOut = &KernelError{Kind: ErrTimedOut, Detail: "connect timed out"}

	// ErrBadShutdownMode indicates an unrecognised shutdown_mode value.
	ErrBadShutdownMode = &KernelError{Kind: ErrInvalidArg, Detail: "unknown shutdown mode"}
)
