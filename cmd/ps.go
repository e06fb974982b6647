package cmd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"microkern-go/kdefs"
	"microkern-go/kernel"
	"microkern-go/procinfo"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "Boot a kernel, spawn a handful of demo processes, and list them",
	Long: `ps boots a fresh kernel, execs a couple of sample processes and a
kernel-scheduled thread, then drains the kernel's own procinfo stream
(the same one sys_OpenInfo hands to a real process) to render the table.`,
	Args: cobra.NoArgs,
	RunE: runPS,
}

func init() {
	rootCmd.AddCommand(psCmd)
}

func runPS(cmd *cobra.Command, args []string) error {
	k := kernel.New()
	k.Boot("ps-root")

	sleeper := func(argl int, args []byte) int { return 0 }
	worker := func(argl int, args []byte) int {
		var p kdefs.PipeT
		k.Pipe(&p)
		k.Close(p.Read)
		k.Close(p.Write)
		return 0
	}
	k.Exec(sleeper, "sleeper", 0, nil)
	k.Exec(worker, "worker", len("--verbose"), []byte("--verbose"))
	k.CreateThread(sleeper, 0, nil)

	fid := k.OpenInfo()
	if fid == kdefs.NOFILE {
		return fmt.Errorf("OpenInfo: could not open the process table stream")
	}
	defer k.Close(fid)

	w := cmd.OutOrStdout()
	width := terminalWidth(w)

	fmt.Fprintf(w, "%-6s %-6s %-6s %-8s %-16s %s\n", "PID", "PPID", "ALIVE", "THREADS", "TASK", "ARGS")

	buf := make([]byte, procinfo.RecordSize)
	for {
		n := k.Read(fid, buf)
		if n < 0 {
			break
		}
		rec, err := decodeProcinfoRecord(buf[:n])
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%-6d %-6d %-6t %-8d %-16s %s",
			rec.Pid, rec.PPid, rec.Alive != 0, rec.ThreadCount,
			procinfoCString(rec.TaskName[:]), procinfoArgs(rec))
		if width > 0 && len(line) > width {
			line = line[:width]
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func decodeProcinfoRecord(b []byte) (procinfo.Record, error) {
	var rec procinfo.Record
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &rec); err != nil {
		return rec, fmt.Errorf("decode procinfo record: %w", err)
	}
	return rec, nil
}

func procinfoCString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func procinfoArgs(rec procinfo.Record) string {
	n := int(rec.Argl)
	if n < 0 || n > len(rec.Args) {
		n = 0
	}
	return string(rec.Args[:n])
}

// terminalWidth returns the output's terminal width, or 0 if w isn't a
// terminal (e.g. piped output, or a test's in-memory buffer).
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
