// Package pipe implements the bounded in-kernel byte pipe: a fixed-size
// ring buffer shared by a reader and a writer fid, synchronized through
// the kernel's single lock via a hasSpace/hasData condition pair.
package pipe

import (
	"microkern-go/errors"
	"microkern-go/kdefs"
	"microkern-go/klock"
)

// Pipe is the shared control block behind a pipe's read and write ends.
// A single Pipe is wrapped by two FCBs (one per end) bound into the
// creating process's FIDT by kdefs.PipeT's two fids.
type Pipe struct {
	lock *klock.Lock

	hasSpace *klock.Cond
	hasData  *klock.Cond

	buf        [kdefs.PipeBufferSize]byte
	readPos    int
	writePos   int
	count      int
	readOpen   bool
	writeOpen  bool
}

// New creates a pipe sharing the kernel's single lock, l. Both ends
// start open.
func New(l *klock.Lock) *Pipe {
	return &Pipe{
		lock:      l,
		hasSpace:  klock.NewCond(l),
		hasData:   klock.NewCond(l),
		readOpen:  true,
		writeOpen: true,
	}
}

// Write copies up to len(data) bytes into the ring buffer, blocking
// while the buffer is full and the reader is still open. It copies
// byte-by-byte, broadcasting hasData after each byte so a blocked reader
// can wake as soon as anything is available.
//
// If the reader closes partway through, Write stops and returns the
// count already written, never an error mid-stream; if the reader is
// closed before any byte is copied (already closed on entry, or closed
// while Write waited for space), it returns -1 with ErrReaderClosed.
func (p *Pipe) Write(data []byte) (int, error) {
	if len(data) < 1 {
		return 0, errors.New(errors.ErrInvalidArg, "pipe_write", "length must be >= 1")
	}
	if !p.writeOpen {
		return -1, errors.New(errors.ErrWrongState, "pipe_write", "write end already closed")
	}
	if !p.readOpen {
		return -1, errors.ErrReaderClosed
	}

	written := 0
	for written < len(data) {
		for p.count == kdefs.PipeBufferSize && p.readOpen && p.writeOpen {
			p.hasSpace.Wait()
		}
		if !p.writeOpen {
			break
		}
		if !p.readOpen {
			if written == 0 {
				return -1, errors.ErrReaderClosed
			}
			break
		}

		p.buf[p.writePos] = data[written]
		p.writePos = (p.writePos + 1) % kdefs.PipeBufferSize
		p.count++
		written++
		p.hasData.Broadcast()
	}
	return written, nil
}

// Read copies up to len(buf) bytes out of the ring buffer, blocking
// while it is empty and the writer is still open. It returns a short
// count (0 meaning end-of-stream) once the writer has closed and the
// buffer has drained, never an error for ordinary EOF.
func (p *Pipe) Read(buf []byte) (int, error) {
	if len(buf) < 1 {
		return 0, errors.New(errors.ErrInvalidArg, "pipe_read", "length must be >= 1")
	}
	if !p.readOpen {
		return -1, errors.New(errors.ErrWrongState, "pipe_read", "read end already closed")
	}

	for p.count == 0 && p.writeOpen && p.readOpen {
		p.hasData.Wait()
	}
	if !p.readOpen {
		return -1, errors.New(errors.ErrWrongState, "pipe_read", "read end closed while waiting")
	}
	if p.count == 0 {
		// writer closed with nothing left buffered: EOF
		return 0, nil
	}

	read := 0
	for read < len(buf) && p.count > 0 {
		buf[read] = p.buf[p.readPos]
		p.readPos = (p.readPos + 1) % kdefs.PipeBufferSize
		p.count--
		read++
		p.hasSpace.Broadcast()
	}
	return read, nil
}

// CloseReader closes the read end. Any writer blocked on a full buffer
// is woken so it can observe the reader is gone.
func (p *Pipe) CloseReader() int {
	if !p.readOpen {
		return -1
	}
	p.readOpen = false
	p.hasSpace.Broadcast()
	p.hasData.Broadcast()
	return 0
}

// CloseWriter closes the write end. Any reader blocked on an empty
// buffer is woken to observe EOF.
func (p *Pipe) CloseWriter() int {
	if !p.writeOpen {
		return -1
	}
	p.writeOpen = false
	p.hasData.Broadcast()
	return 0
}
