package stream

import "microkern-go/kdefs"

// FIDT is a process's file-id table: a fixed-size array of FCB pointers
// indexed by Fid_t, sized kdefs.MaxFileID. The zero value is a table
// with every slot free.
type FIDT [kdefs.MaxFileID]*FCB

// Reserve finds len(fcbs) free slots and binds them to fcbs in one
// step: either every fid is granted, or none are and the table is left
// untouched. This is how Pipe (needs 2) and Socket (needs 1) get atomic
// all-or-nothing fid allocation.
func (t *FIDT) Reserve(fcbs []*FCB) ([]kdefs.Fid_t, bool) {
	slots := make([]int, 0, len(fcbs))
	for i, f := range t {
		if f == nil {
			slots = append(slots, i)
			if len(slots) == len(fcbs) {
				break
			}
		}
	}
	if len(slots) < len(fcbs) {
		return nil, false
	}

	fids := make([]kdefs.Fid_t, len(fcbs))
	for i, slot := range slots {
		t[slot] = fcbs[i]
		fids[i] = kdefs.Fid_t(slot)
	}
	return fids, true
}

// Get returns the FCB bound to fid, or ok=false if fid is out of range
// or unbound.
func (t *FIDT) Get(fid kdefs.Fid_t) (*FCB, bool) {
	if fid < 0 || int(fid) >= len(t) {
		return nil, false
	}
	f := t[fid]
	return f, f != nil
}

// Bind directly installs fcb at fid, overwriting whatever was there.
// Used when Reserve's pick-a-free-slot pattern doesn't fit: Exec copies
// each inherited FCB into the child's table at the same fid the parent
// uses.
func (t *FIDT) Bind(fid kdefs.Fid_t, fcb *FCB) {
	t[fid] = fcb
}

// Release clears fid's slot without touching the FCB's refcount; callers
// decref the FCB themselves.
func (t *FIDT) Release(fid kdefs.Fid_t) {
	if fid >= 0 && int(fid) < len(t) {
		t[fid] = nil
	}
}

// Each calls fn for every bound fid, in ascending order. Used to sweep a
// dying process's whole table.
func (t *FIDT) Each(fn func(kdefs.Fid_t, *FCB)) {
	for i, f := range t {
		if f != nil {
			fn(kdefs.Fid_t(i), f)
		}
	}
}
