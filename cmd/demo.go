package cmd

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"microkern-go/kdefs"
	"microkern-go/kernel"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the end-to-end kernel scenarios and report pass/fail",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

type scenario struct {
	name string
	run  func(k *kernel.Kernel) error
}

var scenarios = []scenario{
	{"pipe echo", scenarioPipeEcho},
	{"buffer wraparound", scenarioWraparound},
	{"fork inheritance", scenarioForkInheritance},
	{"listener/accept/connect", scenarioRendezvous},
	{"connect timeout", scenarioConnectTimeout},
	{"thread join/detach", scenarioJoinDetach},
}

type result struct {
	name string
	err  error
}

// runDemo fans every scenario out onto its own goroutine and fresh
// kernel via errgroup, then reports a simple pass/fail table.
func runDemo(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	g, ctx := errgroup.WithContext(ctx)

	var (
		mu      sync.Mutex
		results []result
	)

	for _, sc := range scenarios {
		sc := sc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			k := kernel.New()
			k.Boot(sc.name)
			err := sc.run(k)

			mu.Lock()
			results = append(results, result{name: sc.name, err: err})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].name < results[j].name })

	failed := 0
	for _, r := range results {
		status := "PASS"
		if r.err != nil {
			status = "FAIL: " + r.err.Error()
			failed++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", r.name, status)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}

func scenarioPipeEcho(k *kernel.Kernel) error {
	var p kdefs.PipeT
	if rc := k.Pipe(&p); rc != 0 {
		return fmt.Errorf("Pipe() = %d, want 0", rc)
	}

	tid := k.CreateThread(func(argl int, args []byte) int {
		k.Write(p.Write, []byte("HELLO"))
		k.Close(p.Write)
		return 0
	}, 0, nil)
	if tid == kdefs.NOTHREAD {
		return fmt.Errorf("CreateThread() = NOTHREAD")
	}

	buf := make([]byte, 8)
	n := k.Read(p.Read, buf)
	if n != 5 || string(buf[:5]) != "HELLO" {
		return fmt.Errorf("Read() = (%d, %q), want (5, \"HELLO\")", n, buf[:n])
	}
	if n2 := k.Read(p.Read, buf); n2 != 0 {
		return fmt.Errorf("second Read() = %d, want 0 (EOF)", n2)
	}
	return nil
}

func scenarioWraparound(k *kernel.Kernel) error {
	var p kdefs.PipeT
	if rc := k.Pipe(&p); rc != 0 {
		return fmt.Errorf("Pipe() = %d, want 0", rc)
	}

	total := kdefs.PipeBufferSize + 1000
	payload := make([]byte, total)
	for i := range payload {
		payload[i] = byte(i)
	}

	tid := k.CreateThread(func(argl int, args []byte) int {
		k.Write(p.Write, payload)
		k.Close(p.Write)
		return 0
	}, 0, nil)
	if tid == kdefs.NOTHREAD {
		return fmt.Errorf("CreateThread() = NOTHREAD")
	}

	got := make([]byte, 0, total)
	buf := make([]byte, 4096)
	for {
		n := k.Read(p.Read, buf)
		if n <= 0 {
			break
		}
		got = append(got, buf[:n]...)
	}
	k.Close(p.Read)

	if len(got) != total {
		return fmt.Errorf("read %d bytes, want %d", len(got), total)
	}
	if !bytes.Equal(got, payload) {
		return fmt.Errorf("byte sequence mismatch after wraparound")
	}
	return nil
}

func scenarioForkInheritance(k *kernel.Kernel) error {
	var p kdefs.PipeT
	if rc := k.Pipe(&p); rc != 0 {
		return fmt.Errorf("Pipe() = %d, want 0", rc)
	}

	childTask := func(argl int, args []byte) int {
		// The child inherited both pipe ends; drop the write end so the
		// parent's close is the last reference and EOF can arrive.
		k.Close(p.Write)
		buf := make([]byte, 64)
		total := 0
		for {
			n := k.Read(p.Read, buf)
			if n <= 0 {
				break
			}
			total += n
		}
		return total
	}
	childPid := k.Exec(childTask, "pipe-reader", 0, nil)
	if childPid == kdefs.NOPROC {
		return fmt.Errorf("Exec() = NOPROC")
	}

	if n := k.Write(p.Write, []byte("ABC")); n != 3 {
		return fmt.Errorf("Write() = %d, want 3", n)
	}
	if rc := k.Close(p.Write); rc != 0 {
		return fmt.Errorf("Close(write) = %d, want 0", rc)
	}

	var status int
	reaped := k.WaitChild(childPid, &status)
	if reaped != childPid {
		return fmt.Errorf("WaitChild() = %d, want %d", reaped, childPid)
	}
	if status != 3 {
		return fmt.Errorf("child exit status = %d, want 3", status)
	}
	return nil
}

func scenarioRendezvous(k *kernel.Kernel) error {
	const port = kdefs.Port_t(42)

	lsock := k.Socket(port)
	if lsock == kdefs.NOFILE {
		return fmt.Errorf("Socket() = NOFILE")
	}
	if rc := k.Listen(lsock); rc != 0 {
		return fmt.Errorf("Listen() = %d, want 0", rc)
	}

	tid := k.CreateThread(func(argl int, args []byte) int {
		return int(k.Accept(lsock))
	}, 0, nil)
	if tid == kdefs.NOTHREAD {
		return fmt.Errorf("CreateThread() = NOTHREAD")
	}

	csock := k.Socket(kdefs.NOPORT)
	if csock == kdefs.NOFILE {
		return fmt.Errorf("client Socket() = NOFILE")
	}
	if rc := k.Connect(csock, port, 1000); rc != 0 {
		return fmt.Errorf("Connect() = %d, want 0", rc)
	}

	var ev int
	if rc := k.ThreadJoin(tid, &ev); rc != 0 {
		return fmt.Errorf("ThreadJoin() = %d, want 0", rc)
	}
	serverFid := kdefs.Fid_t(ev)
	if serverFid == kdefs.NOFILE {
		return fmt.Errorf("Accept() = NOFILE")
	}

	if n := k.Write(csock, []byte("PING")); n != 4 {
		return fmt.Errorf("Write() = %d, want 4", n)
	}
	buf := make([]byte, 4)
	if n := k.Read(serverFid, buf); n != 4 || string(buf) != "PING" {
		return fmt.Errorf("Read() = (%d, %q), want (4, \"PING\")", n, buf[:n])
	}
	return nil
}

func scenarioConnectTimeout(k *kernel.Kernel) error {
	const port = kdefs.Port_t(42)

	lsock := k.Socket(port)
	if rc := k.Listen(lsock); rc != 0 {
		return fmt.Errorf("Listen() = %d, want 0", rc)
	}

	csock := k.Socket(kdefs.NOPORT)
	start := time.Now()
	rc := k.Connect(csock, port, 100)
	elapsed := time.Since(start)
	if rc != -1 {
		return fmt.Errorf("Connect() = %d, want -1 (timeout)", rc)
	}
	if elapsed < 80*time.Millisecond {
		return fmt.Errorf("Connect() returned after %v, too soon for a 100ms timeout", elapsed)
	}

	// The listener must still be usable after a timed-out connect.
	tid := k.CreateThread(func(argl int, args []byte) int {
		return int(k.Accept(lsock))
	}, 0, nil)
	csock2 := k.Socket(kdefs.NOPORT)
	if rc := k.Connect(csock2, port, 1000); rc != 0 {
		return fmt.Errorf("second Connect() = %d, want 0", rc)
	}
	var ev int
	k.ThreadJoin(tid, &ev)
	if kdefs.Fid_t(ev) == kdefs.NOFILE {
		return fmt.Errorf("listener unusable after a timed-out connect")
	}
	return nil
}

func scenarioJoinDetach(k *kernel.Kernel) error {
	tid := k.CreateThread(func(argl int, args []byte) int {
		time.Sleep(20 * time.Millisecond)
		return 7
	}, 0, nil)
	if tid == kdefs.NOTHREAD {
		return fmt.Errorf("CreateThread() = NOTHREAD")
	}

	var ev int
	if rc := k.ThreadJoin(tid, &ev); rc != 0 || ev != 7 {
		return fmt.Errorf("ThreadJoin() = (%d, %d), want (0, 7)", rc, ev)
	}
	if rc := k.ThreadJoin(tid, &ev); rc != -1 {
		return fmt.Errorf("second ThreadJoin() = %d, want -1 (unknown thread)", rc)
	}

	tid2 := k.CreateThread(func(argl int, args []byte) int {
		time.Sleep(20 * time.Millisecond)
		return 0
	}, 0, nil)
	if rc := k.ThreadDetach(tid2); rc != 0 {
		return fmt.Errorf("ThreadDetach() = %d, want 0", rc)
	}
	if rc := k.ThreadJoin(tid2, nil); rc != -1 {
		return fmt.Errorf("ThreadJoin() on a detached thread = %d, want -1", rc)
	}
	return nil
}
