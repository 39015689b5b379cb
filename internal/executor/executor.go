package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"vmflow/pkg/logging"
)

const subsystem = "Executor"

// Result is the structured outcome of one executor invocation. The
// executor's output is opaque to vmflow; only the numeric code is
// interpreted.
type Result struct {
	Code   int    `json:"code"`
	Output string `json:"output,omitempty"`
}

// Success reports whether the executor signalled a successful run.
func (r Result) Success() bool {
	return r.Code == 0
}

// Runner invokes one external executor program. Implementations block
// until the program exits or the run times out.
type Runner interface {
	Run(ctx context.Context, args ...string) (Result, error)
}

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// CommandRunner runs an executor binary by path with a bounded timeout.
// The program performs the real virtualization-platform work; vmflow
// treats it as opaque and synchronizes only on its exit status.
type CommandRunner struct {
	path    string
	timeout time.Duration
}

// NewCommandRunner creates a runner for the executor at path.
func NewCommandRunner(path string, timeout time.Duration) *CommandRunner {
	return &CommandRunner{path: path, timeout: timeout}
}

// Run executes the program. A clean exit yields a structured Result,
// including non-zero codes; a start failure or timeout yields an error.
func (r *CommandRunner) Run(ctx context.Context, args ...string) (Result, error) {
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	logging.Info(subsystem, "Running %s %s", r.path, strings.Join(args, " "))
	start := time.Now()

	cmd := execCommandContext(runCtx, r.path, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	elapsed := time.Since(start).Round(time.Millisecond)

	if runCtx.Err() == context.DeadlineExceeded {
		return Result{}, fmt.Errorf("executor %s timed out after %s", r.path, r.timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result := Result{Code: exitErr.ExitCode(), Output: output.String()}
		logging.Warn(subsystem, "%s exited with code %d after %s", r.path, result.Code, elapsed)
		return result, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("executor %s failed to run: %w", r.path, err)
	}

	logging.Info(subsystem, "%s completed successfully in %s", r.path, elapsed)
	return Result{Code: 0, Output: output.String()}, nil
}
