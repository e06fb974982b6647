package proc

import (
	"reflect"
	"runtime"

	"microkern-go/kdefs"
)

// taskName resolves a Task's function name via the runtime symbol table.
// Go function values aren't comparable or stable as integers, so rather
// than invent a fabricated "address" for procinfo's main_task field,
// each process records a human-readable name: the one Exec was given,
// or this runtime-resolved symbol as the fallback when the caller
// passed none, the way a debugger resolves a stripped-of-types function
// pointer back to a symbol.
func taskName(t kdefs.Task) string {
	if t == nil {
		return ""
	}
	pc := reflect.ValueOf(t).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "?"
	}
	return fn.Name()
}
