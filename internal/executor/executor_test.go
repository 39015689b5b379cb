package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecCommand re-invokes the test binary so executor behavior can be
// scripted through TestHelperProcess.
func fakeExecCommand(behavior string) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := []string{"-test.run=TestHelperProcess", "--", behavior}
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		return cmd
	}
}

// TestHelperProcess is a helper process for mocking exec.CommandContext.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}

	switch args[0] {
	case "ok":
		fmt.Println("migration complete")
		os.Exit(0)
	case "fail":
		fmt.Println("host host-2 unreachable")
		os.Exit(3)
	case "hang":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	}
	os.Exit(0)
}

func TestRunSuccess(t *testing.T) {
	orig := execCommandContext
	execCommandContext = fakeExecCommand("ok")
	defer func() { execCommandContext = orig }()

	result, err := NewCommandRunner("/opt/executor", time.Minute).Run(context.Background(), "plan.yaml")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Contains(t, result.Output, "migration complete")
}

func TestRunNonZeroExit(t *testing.T) {
	orig := execCommandContext
	execCommandContext = fakeExecCommand("fail")
	defer func() { execCommandContext = orig }()

	result, err := NewCommandRunner("/opt/executor", time.Minute).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.Equal(t, 3, result.Code)
	assert.Contains(t, result.Output, "unreachable")
}

func TestRunTimeout(t *testing.T) {
	orig := execCommandContext
	execCommandContext = fakeExecCommand("hang")
	defer func() { execCommandContext = orig }()

	_, err := NewCommandRunner("/opt/executor", 100*time.Millisecond).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRunMissingBinary(t *testing.T) {
	_, err := NewCommandRunner("/does/not/exist", time.Minute).Run(context.Background())
	assert.Error(t, err)
}
