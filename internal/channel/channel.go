// Package channel runs one external command synchronously, writing an input
// payload to its stdin while draining its stdout, and reports how it exited.
//
// Both directions are driven from the calling goroutine through a single
// readiness wait, so a child that fills its output pipe before consuming its
// input (or the reverse) cannot deadlock the exchange.
package channel

// Invocation is a single request to run an executable.
type Invocation struct {
	Executable string   // resolved via PATH when it has no separator
	Args       []string // arguments, not including the executable
	Input      []byte   // written to the child's stdin; may be empty
}

// Outcome holds the result of a completed invocation.
type Outcome struct {
	Status    int    // exit code; non-zero is data, not an error
	Output    []byte // everything the child wrote to stdout, in order
	Abandoned int    // input bytes not delivered because the child closed stdin
}

// Invoke runs executable with args, feeds it input and returns once the
// child has exited. It never retries and never times out.
//
// Failures are reported as *SpawnError, *IoError or *ExitCollectionError.
func Invoke(executable string, args []string, input []byte) (Outcome, error) {
	return Invocation{Executable: executable, Args: args, Input: input}.Run()
}
