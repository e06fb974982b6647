package pipe

import (
	"testing"
	"time"

	"microkern-go/klock"
)

func TestPipe_WriteThenRead(t *testing.T) {
	var l klock.Lock
	p := New(&l)

	l.Lock()
	n, err := p.Write([]byte("hello"))
	l.Unlock()
	if err != nil || n != 5 {
		t.Fatalf("Write() = (%d, %v), want (5, nil)", n, err)
	}

	buf := make([]byte, 16)
	l.Lock()
	n, err = p.Read(buf)
	l.Unlock()
	if err != nil || n != 5 {
		t.Fatalf("Read() = (%d, %v), want (5, nil)", n, err)
	}
	if string(buf[:n]) != "hello" {
		t.Errorf("Read() data = %q, want %q", buf[:n], "hello")
	}
}

func TestPipe_ReadBlocksUntilWrite(t *testing.T) {
	var l klock.Lock
	p := New(&l)

	done := make(chan struct{})
	var gotN int
	go func() {
		buf := make([]byte, 4)
		l.Lock()
		n, _ := p.Read(buf)
		l.Unlock()
		gotN = n
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Read returned before any data was written")
	default:
	}

	l.Lock()
	p.Write([]byte("hi"))
	l.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Read never woke after Write")
	}
	if gotN != 2 {
		t.Errorf("Read got n=%d, want 2", gotN)
	}
}

func TestPipe_WriteBlocksWhenFull(t *testing.T) {
	var l klock.Lock
	p := New(&l)

	full := make([]byte, cap(p.buf[:]))
	l.Lock()
	p.Write(full)
	l.Unlock()

	writeDone := make(chan struct{})
	go func() {
		l.Lock()
		p.Write([]byte("x"))
		l.Unlock()
		close(writeDone)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-writeDone:
		t.Fatal("Write should have blocked on a full buffer")
	default:
	}

	buf := make([]byte, 1)
	l.Lock()
	p.Read(buf)
	l.Unlock()

	select {
	case <-writeDone:
	case <-time.After(time.Second):
		t.Fatal("Write never woke after space freed")
	}
}

func TestPipe_ReadEOFAfterWriterCloses(t *testing.T) {
	var l klock.Lock
	p := New(&l)

	l.Lock()
	p.Write([]byte("ab"))
	p.CloseWriter()
	l.Unlock()

	buf := make([]byte, 8)
	l.Lock()
	n, err := p.Read(buf)
	l.Unlock()
	if err != nil || n != 2 {
		t.Fatalf("first Read() = (%d, %v), want (2, nil)", n, err)
	}

	l.Lock()
	n, err = p.Read(buf)
	l.Unlock()
	if err != nil || n != 0 {
		t.Fatalf("Read() after drain = (%d, %v), want (0, nil) for EOF", n, err)
	}
}

func TestPipe_WriteAfterReaderClosedReturnsMinusOne(t *testing.T) {
	var l klock.Lock
	p := New(&l)

	l.Lock()
	p.CloseReader()
	n, err := p.Write([]byte("xyz"))
	l.Unlock()

	if n != -1 {
		t.Errorf("Write to a closed reader with nothing written should return -1, got %d", n)
	}
	if err == nil {
		t.Error("expected ErrReaderClosed")
	}
}

func TestPipe_CloseWriterTwiceFails(t *testing.T) {
	var l klock.Lock
	p := New(&l)

	l.Lock()
	defer l.Unlock()
	if rc := p.CloseWriter(); rc != 0 {
		t.Fatalf("first CloseWriter() = %d, want 0", rc)
	}
	if rc := p.CloseWriter(); rc != -1 {
		t.Errorf("second CloseWriter() = %d, want -1", rc)
	}
}
