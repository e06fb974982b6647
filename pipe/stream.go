package pipe

import "microkern-go/stream"

// ReadEndOps is the vtable bound to a pipe's reading fid: Read only;
// Write is left nil so the FCB layer reports -1 if ever misused.
var ReadEndOps = &stream.Vtable{
	Read: func(obj any, buf []byte) int {
		n, err := obj.(*Pipe).Read(buf)
		if err != nil {
			return -1
		}
		return n
	},
	Close: func(obj any) int {
		return obj.(*Pipe).CloseReader()
	},
}

// WriteEndOps is the vtable bound to a pipe's writing fid: Write only;
// Read is left nil.
var WriteEndOps = &stream.Vtable{
	Write: func(obj any, buf []byte) int {
		n, err := obj.(*Pipe).Write(buf)
		if err != nil && n == 0 {
			return -1
		}
		return n
	},
	Close: func(obj any) int {
		return obj.(*Pipe).CloseWriter()
	},
}
