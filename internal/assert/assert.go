package assert

import "fmt"

// That panics with the formatted message when the condition does not hold.
// Violated conditions are programmer errors, not recoverable failures, so
// there is no error-value variant of this.
func That(condition bool, format string, args ...any) {
	if !condition {
		panic(fmt.Sprintf(format, args...))
	}
}
