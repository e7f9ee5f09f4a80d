//go:build !icrelease

package ic

import "fmt"

// DebugChecks reports whether internal-consistency checks are compiled in.
// Build with -tags icrelease to drop them.
const DebugChecks = true

// check panics with an internal-consistency error when cond is false.
func check(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("%w: %s", ErrInvalidDescriptor, fmt.Sprintf(format, args...)))
	}
}
