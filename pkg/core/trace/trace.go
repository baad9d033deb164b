// Package trace provides the diagnostic callback used by the pricing
// engine. The engine itself never writes to stdout; callers that want
// step-level visibility inject a Tracer.
package trace

import "fmt"

// Tracer receives stage-tagged diagnostics from the engine.
type Tracer interface {
	Trace(stage string, format string, args ...interface{})
}

// Nop discards all diagnostics. It is the engine default.
type Nop struct{}

func (Nop) Trace(stage string, format string, args ...interface{}) {}

// Printf writes diagnostics to stdout with a bracketed stage tag,
// e.g. "[MATRIX] 23 price points generated". Intended for CLI runs.
type Printf struct{}

func (Printf) Trace(stage string, format string, args ...interface{}) {
	fmt.Printf("[%s] %s\n", stage, fmt.Sprintf(format, args...))
}
