package utils

import (
	"fmt"
	"runtime"
)

// RecoverIntoError converts a panic into a returned error, capturing
// the stack. Defer it at the top of functions that call out to
// user-supplied sink or factory implementations so a faulting
// implementation can not take down the dispatch path or leave locks
// held.
func RecoverIntoError(err *error) {
	r := recover()
	if r != nil {
		buffer := make([]byte, 4096)
		n := runtime.Stack(buffer, false /* all */)
		*err = fmt.Errorf("PANIC: %v\n%s", r, buffer[:n])
	}
}
