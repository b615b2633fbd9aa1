package collect

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// errCommandTimedOut is returned by runCommand when the timeout expired before
// the process exited.
var errCommandTimedOut = errors.New("command timed out")

type execResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// execFunc runs a process to completion. A non-zero exit is reported through
// ExitCode, not as an error.
type execFunc func(ctx context.Context, timeout time.Duration, name string, args ...string) (*execResult, error)

func runCommand(ctx context.Context, timeout time.Duration, name string, args ...string) (*execResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	// children of a killed shell can hold the output pipes open
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	klog.V(2).Infof("Running collector command: %q", cmd.String())
	err := cmd.Run()

	result := &execResult{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if ctx.Err() == context.DeadlineExceeded {
		result.ExitCode = -1
		return result, errCommandTimedOut
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, err
	}

	return result, nil
}
