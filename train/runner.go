package train

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Runner runs an external command, writing its combined output to out
type Runner interface {
	Run(ctx context.Context, name string, args []string, out io.Writer) error
}

// ExecRunner runs commands as child processes
type ExecRunner struct {
	// Dir is the working directory, empty for the current directory
	Dir string
	Log *zap.SugaredLogger
}

// Run starts the command and waits for it to finish.  Cancelling ctx kills
// the process.
func (r ExecRunner) Run(ctx context.Context, name string, args []string, out io.Writer) error {

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stdout = out
	cmd.Stderr = out

	if r.Log != nil {
		r.Log.Debugw("running command", "cmd", name, "args", strings.Join(args, " "))
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s failed: %w", name, strings.Join(leading(args, 2), " "), err)
	}

	return nil
}

// leading returns at most the first n arguments
func leading(args []string, n int) []string {
	if len(args) < n {
		return args
	}

	return args[:n]
}
