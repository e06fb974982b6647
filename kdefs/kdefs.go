// Package kdefs holds the sizing constants, sentinel values and small
// shared types of the teaching kernel's system-call surface. Every other
// package in this module imports kdefs rather than redefining these
// values locally.
package kdefs

// Sizing constants. Small enough to keep tests and the demo CLI fast.
const (
	// MaxProc is the size of the process table.
	MaxProc = 65536

	// MaxFileID is the number of file-id slots per process (the FIDT size).
	MaxFileID = 16

	// MaxPort is the highest legal socket port number; ports run 1..MaxPort.
	MaxPort = 1023

	// PipeBufferSize is the capacity of a pipe's circular byte buffer.
	// Must be a power of two so index math stays cheap, though indices are
	// reduced with plain modulo throughout.
	PipeBufferSize = 16384

	// MaxArgPayload bounds how many bytes of a process's argument buffer
	// OpenInfo's procinfo stream copies per record.
	MaxArgPayload = 256
)

// Sentinel return values of the system-call surface.
const (
	// NOPROC is returned in place of a Pid_t on failure, and is also the
	// pid of the idle/scheduler process.
	NOPROC Pid_t = 0

	// NOFILE is returned in place of a Fid_t on failure.
	NOFILE Fid_t = -1

	// NOTHREAD is returned in place of a Tid_t on failure.
	NOTHREAD Tid_t = 0

	// NOPORT marks a socket as unbound to any port.
	NOPORT Port_t = 0
)

// Pid_t identifies a process by its slot in the process table.
type Pid_t int

// Tid_t identifies a thread. It is a small integer assigned by the
// process table, not a reinterpreted pointer.
type Tid_t int

// Fid_t identifies an open stream within one process's FIDT.
type Fid_t int

// Port_t identifies a socket port, 1..MaxPort, or NOPORT.
type Port_t int

// Task is the entry point of a process's main thread or of a spawned
// thread: it receives the raw argument buffer and returns an exit value.
type Task func(argl int, args []byte) int

// PipeT is the pair of file ids returned by Pipe().
type PipeT struct {
	Read  Fid_t
	Write Fid_t
}

// ShutdownMode selects which half of a connected socket to shut down.
type ShutdownMode int

const (
	ShutdownRead  ShutdownMode = 1
	ShutdownWrite ShutdownMode = 2
	ShutdownBoth  ShutdownMode = 3
)

func (m ShutdownMode) String() string {
	switch m {
	case ShutdownRead:
		return "read"
	case ShutdownWrite:
		return "write"
	case ShutdownBoth:
		return "both"
	default:
		return "invalid"
	}
}
