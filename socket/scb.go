// Package socket implements the teaching kernel's socket layer: an SCB
// tagged union (UNBOUND | LISTENER | PEER), a global port map, the
// listener request-queue rendezvous, and the pair of pipes that back a
// connected PEER.
package socket

import (
	"microkern-go/kdefs"
	"microkern-go/klock"
	"microkern-go/list"
	"microkern-go/pipe"
)

type tag int

const (
	tagUnbound tag = iota
	tagListener
	tagPeer
)

// SCB is a socket control block, modelled as a sum type: only the
// fields matching the current tag are meaningful, and every Manager
// method checks the tag before touching the variant-specific fields;
// an unexpected tag is a caller error reported through the normal error
// path, never a panic.
type SCB struct {
	port     kdefs.Port_t
	refcount int
	tag      tag

	// LISTENER fields.
	queue        *list.List[*ConnRequest]
	reqAvailable *klock.Cond

	// PEER fields.
	peer      *SCB
	readPipe  *pipe.Pipe
	writePipe *pipe.Pipe
}

// ConnRequest is a pending connection, owned by the connecting side and
// enqueued on the listener.
type ConnRequest struct {
	admitted    bool
	discarded   bool // set by Manager.opClose when its listener closes with this request still queued
	requester   *SCB
	connectedCV *klock.Cond
	handle      list.Handle
}

// Port reports the SCB's bound port (kdefs.NOPORT if never bound).
func (s *SCB) Port() kdefs.Port_t { return s.port }

// IsPeer reports whether the socket is a connected PEER.
func (s *SCB) IsPeer() bool { return s.tag == tagPeer }
