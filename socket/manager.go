package socket

import (
	"time"

	"microkern-go/errors"
	"microkern-go/kdefs"
	"microkern-go/klock"
	"microkern-go/list"
	"microkern-go/pipe"
	"microkern-go/stream"
)

// Manager owns the global port map and the stream vtable every SCB is
// wrapped in. Like proc.Table, every exported method here
// assumes the kernel's single lock is already held by the caller.
type Manager struct {
	lock  *klock.Lock
	ports [kdefs.MaxPort + 1]*SCB
	vt    *stream.Vtable
}

// NewManager returns a socket manager sharing the kernel lock l.
func NewManager(l *klock.Lock) *Manager {
	m := &Manager{lock: l}
	m.vt = &stream.Vtable{
		Read:  m.opRead,
		Write: m.opWrite,
		Close: m.opClose,
	}
	return m
}

// Socket implements sys_Socket: reserves one fid in fidt
// for a fresh UNBOUND socket.
func (m *Manager) Socket(fidt *stream.FIDT, port kdefs.Port_t) (kdefs.Fid_t, error) {
	if port < kdefs.NOPORT || port > kdefs.MaxPort {
		return kdefs.NOFILE, errors.ErrBadPort
	}
	scb := &SCB{port: port, tag: tagUnbound}
	fcb := stream.NewFCB(scb, m.vt)
	fids, ok := fidt.Reserve([]*stream.FCB{fcb})
	if !ok {
		return kdefs.NOFILE, errors.ErrFIDTFull
	}
	return fids[0], nil
}

// Listen implements sys_Listen.
func (m *Manager) Listen(scb *SCB) error {
	if scb.tag != tagUnbound {
		return errors.ErrNotUnbound
	}
	if scb.port <= kdefs.NOPORT || scb.port > kdefs.MaxPort {
		return errors.ErrBadPort
	}
	if m.ports[scb.port] != nil {
		return errors.ErrPortBound
	}
	scb.tag = tagListener
	scb.queue = list.New[*ConnRequest]()
	scb.reqAvailable = klock.NewCond(m.lock)
	m.ports[scb.port] = scb
	return nil
}

// Connect implements sys_Connect. A negative timeoutMs
// waits indefinitely.
func (m *Manager) Connect(scb *SCB, port kdefs.Port_t, timeoutMs int) error {
	if scb.tag != tagUnbound {
		return errors.ErrNotUnbound
	}
	if port <= kdefs.NOPORT || port > kdefs.MaxPort {
		return errors.ErrBadPort
	}
	listener := m.ports[port]
	if listener == nil || listener.tag != tagListener {
		return errors.ErrNoListener
	}

	req := &ConnRequest{requester: scb, connectedCV: klock.NewCond(m.lock)}
	req.handle = listener.queue.PushBack(req)
	listener.reqAvailable.Signal()
	scb.refcount++

	timedOut := false
	if timeoutMs < 0 {
		for !req.admitted && !req.discarded {
			req.connectedCV.Wait()
		}
	} else {
		deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
		for !req.admitted && !req.discarded {
			if req.connectedCV.TimedWait(deadline) {
				timedOut = true
				break
			}
		}
	}

	scb.refcount--
	switch {
	case req.admitted:
		return nil
	case req.discarded:
		// opClose already replaced listener.queue wholesale; req.handle
		// no longer indexes anything live, so there is nothing left to
		// remove here.
		return errors.ErrListenerClosed
	case timedOut:
		listener.queue.Remove(req.handle)
		return errors.ErrConnectTimedOut
	default:
		// Unreachable: the wait loops only exit via one of the three
		// cases above.
		return errors.ErrConnectTimedOut
	}
}

// Accept implements sys_Accept: it blocks while the
// listener's request queue is empty and the listener is still bound,
// allocates the server-side socket into fidt, wires both PEER sockets to
// a pair of pipes, and wakes the requester.
//
// A listener closed while requests are still queued discards them
// rather than servicing them: Manager.opClose drains the queue and
// wakes every waiter unadmitted before this loop would ever see an
// empty-but-still-bound state turn into NOPORT.
func (m *Manager) Accept(fidt *stream.FIDT, listener *SCB) (kdefs.Fid_t, error) {
	if listener.tag != tagListener {
		return kdefs.NOFILE, errors.ErrNotListener
	}

	listener.refcount++
	for listener.queue.Empty() && listener.port != kdefs.NOPORT {
		listener.reqAvailable.Wait()
	}
	if listener.port == kdefs.NOPORT {
		listener.refcount--
		return kdefs.NOFILE, errors.ErrListenerClosed
	}

	req, _ := listener.queue.PopFront()

	serverSCB := &SCB{port: listener.port, tag: tagUnbound}
	serverFCB := stream.NewFCB(serverSCB, m.vt)
	fids, ok := fidt.Reserve([]*stream.FCB{serverFCB})
	if !ok {
		// Put the request back at the head unadmitted: the requester
		// keeps waiting for a later accept (or its own timeout) instead
		// of dangling outside any queue.
		req.handle = listener.queue.PushFront(req)
		listener.refcount--
		return kdefs.NOFILE, errors.ErrFIDTFull
	}

	clientSCB := req.requester
	p1 := pipe.New(m.lock) // server -> client
	p2 := pipe.New(m.lock) // client -> server

	serverSCB.tag, serverSCB.peer, serverSCB.writePipe, serverSCB.readPipe = tagPeer, clientSCB, p1, p2
	clientSCB.tag, clientSCB.peer, clientSCB.writePipe, clientSCB.readPipe = tagPeer, serverSCB, p2, p1

	req.admitted = true
	req.connectedCV.Broadcast()
	listener.refcount--

	return fids[0], nil
}

// ShutDown implements sys_ShutDown.
func (m *Manager) ShutDown(scb *SCB, how kdefs.ShutdownMode) error {
	if scb.tag != tagPeer {
		return errors.ErrNotPeer
	}
	var ok bool
	switch how {
	case kdefs.ShutdownRead:
		ok = m.shutdownRead(scb)
	case kdefs.ShutdownWrite:
		ok = m.shutdownWrite(scb)
	case kdefs.ShutdownBoth:
		r := m.shutdownRead(scb)
		w := m.shutdownWrite(scb)
		ok = r && w
	default:
		return errors.ErrBadShutdownMode
	}
	if !ok {
		return errors.ErrPipeAlreadyClosed
	}
	return nil
}

func (m *Manager) shutdownRead(scb *SCB) bool {
	if scb.readPipe == nil {
		return false
	}
	ok := scb.readPipe.CloseReader() == 0
	scb.readPipe = nil
	return ok
}

func (m *Manager) shutdownWrite(scb *SCB) bool {
	if scb.writePipe == nil {
		return false
	}
	ok := scb.writePipe.CloseWriter() == 0
	scb.writePipe = nil
	return ok
}

func (m *Manager) opRead(obj any, buf []byte) int {
	scb := obj.(*SCB)
	if scb.tag != tagPeer || scb.readPipe == nil {
		return -1
	}
	n, err := scb.readPipe.Read(buf)
	if err != nil {
		return -1
	}
	return n
}

func (m *Manager) opWrite(obj any, buf []byte) int {
	scb := obj.(*SCB)
	if scb.tag != tagPeer || scb.writePipe == nil {
		return -1
	}
	n, err := scb.writePipe.Write(buf)
	if err != nil && n == 0 {
		return -1
	}
	return n
}

// opClose is the per-tag close: an UNBOUND socket is simply discarded
// (the FCB layer already tracked its own refcount); a LISTENER drains
// its queue, waking each waiter unadmitted, and frees its port; a PEER
// closes both of its pipes.
func (m *Manager) opClose(obj any) int {
	scb := obj.(*SCB)
	switch scb.tag {
	case tagListener:
		m.ports[scb.port] = nil
		scb.port = kdefs.NOPORT
		scb.queue.ForEach(func(_ list.Handle, req *ConnRequest) bool {
			req.discarded = true
			req.connectedCV.Broadcast()
			return true
		})
		scb.queue = list.New[*ConnRequest]()
		scb.reqAvailable.Broadcast()
	case tagPeer:
		if scb.readPipe != nil {
			scb.readPipe.CloseReader()
			scb.readPipe = nil
		}
		if scb.writePipe != nil {
			scb.writePipe.CloseWriter()
			scb.writePipe = nil
		}
	}
	return 0
}
