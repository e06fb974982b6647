package kernel

import (
	"microkern-go/kdefs"
	"microkern-go/proc"
	"microkern-go/socket"
)

func (k *Kernel) scbFromFid(pcb *proc.PCB, fid kdefs.Fid_t) (*socket.SCB, bool) {
	fcb, ok := pcb.FIDT().Get(fid)
	if !ok {
		return nil, false
	}
	scb, ok := fcb.StreamObj().(*socket.SCB)
	return scb, ok
}

// Socket implements sys_Socket.
func (k *Kernel) Socket(port kdefs.Port_t) kdefs.Fid_t {
	k.lock.Lock()
	defer k.lock.Unlock()
	_, done := k.entry("sys_Socket")

	pcb := k.currentPCB()
	fid, err := k.sockets.Socket(pcb.FIDT(), port)
	done(err)
	if err != nil {
		return kdefs.NOFILE
	}
	return fid
}

// Listen implements sys_Listen.
func (k *Kernel) Listen(fid kdefs.Fid_t) int {
	k.lock.Lock()
	defer k.lock.Unlock()
	_, done := k.entry("sys_Listen")

	pcb := k.currentPCB()
	scb, ok := k.scbFromFid(pcb, fid)
	if !ok {
		done(errBadFid)
		return -1
	}
	err := k.sockets.Listen(scb)
	done(err)
	if err != nil {
		return -1
	}
	return 0
}

// Accept implements sys_Accept.
func (k *Kernel) Accept(fid kdefs.Fid_t) kdefs.Fid_t {
	k.lock.Lock()
	defer k.lock.Unlock()
	_, done := k.entry("sys_Accept")

	pcb := k.currentPCB()
	scb, ok := k.scbFromFid(pcb, fid)
	if !ok {
		done(errBadFid)
		return kdefs.NOFILE
	}
	newFid, err := k.sockets.Accept(pcb.FIDT(), scb)
	done(err)
	if err != nil {
		return kdefs.NOFILE
	}
	return newFid
}

// Connect implements sys_Connect.
func (k *Kernel) Connect(fid kdefs.Fid_t, port kdefs.Port_t, timeoutMs int) int {
	k.lock.Lock()
	defer k.lock.Unlock()
	_, done := k.entry("sys_Connect")

	pcb := k.currentPCB()
	scb, ok := k.scbFromFid(pcb, fid)
	if !ok {
		done(errBadFid)
		return -1
	}
	err := k.sockets.Connect(scb, port, timeoutMs)
	done(err)
	if err != nil {
		return -1
	}
	return 0
}

// ShutDown implements sys_ShutDown.
func (k *Kernel) ShutDown(fid kdefs.Fid_t, how kdefs.ShutdownMode) int {
	k.lock.Lock()
	defer k.lock.Unlock()
	_, done := k.entry("sys_ShutDown")

	pcb := k.currentPCB()
	scb, ok := k.scbFromFid(pcb, fid)
	if !ok {
		done(errBadFid)
		return -1
	}
	err := k.sockets.ShutDown(scb, how)
	done(err)
	if err != nil {
		return -1
	}
	return 0
}
