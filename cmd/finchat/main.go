// finchat is a personal-finance chat assistant: an HTTP API, a CLI and an MCP
// tool server over one multi-backend answer orchestrator.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// usageError marks bad flags or arguments; run maps it to exit code 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func run(args []string, out io.Writer) int {
	root := newRootCmd(out)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err) //nolint:errcheck
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}
