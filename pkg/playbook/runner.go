package playbook

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/osbeck/labops/pkg/fault"
)

// Result is the captured outcome of one invocation. A non-zero Code is
// normal data, never an error. Command holds the shell-quoted effective
// command line for diagnostics.
type Result struct {
	ID              string  `json:"id"`
	Code            int     `json:"returncode"`
	Stdout          string  `json:"stdout"`
	Stderr          string  `json:"stderr"`
	Command         string  `json:"command"`
	Dir             string  `json:"cwd"`
	DurationSeconds float64 `json:"duration_seconds"`
	Truncated       bool    `json:"truncated,omitempty"`
}

// Runner executes command specs synchronously. MaxOutput caps each
// captured stream in bytes; zero means unlimited.
type Runner struct {
	MaxOutput int
}

// Run starts the process in its own process group, waits for it, and
// returns the outcome. Exceeding the command timeout kills the whole
// group and fails with a timeout fault; a process that cannot start
// fails with a launch fault.
func (r *Runner) Run(ctx context.Context, spec *CommandSpec) (*Result, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	setProcessGroup(cmd)

	stdout := &limitedBuffer{limit: r.MaxOutput}
	stderr := &limitedBuffer{limit: r.MaxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	commandLine := shellJoin(append([]string{spec.Path}, spec.Args...))
	started := time.Now()

	if err := cmd.Start(); err != nil {
		return nil, fault.Launch("start %s: %v", spec.Path, err)
	}

	// Watchdog: on deadline, kill the whole group so ansible's children
	// die with it.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			killProcessGroup(cmd)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) || errors.Is(ctxErr, context.Canceled) {
		return nil, fault.Timeout("command exceeded %s: %s", spec.Timeout, commandLine)
	}

	code := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fault.Internal("wait for %s: %v", spec.Path, waitErr)
		}
		code = exitErr.ExitCode()
	}

	return &Result{
		ID:              uuid.NewString(),
		Code:            code,
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
		Command:         commandLine,
		Dir:             spec.Dir,
		DurationSeconds: time.Since(started).Seconds(),
		Truncated:       stdout.truncated || stderr.truncated,
	}, nil
}

// limitedBuffer caps captured output while reporting the full write as
// accepted so the child never blocks on a full pipe.
type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if l.limit <= 0 {
		return l.buf.Write(p)
	}
	remaining := l.limit - l.buf.Len()
	if remaining <= 0 {
		l.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		l.truncated = true
		_, _ = l.buf.Write(p[:remaining])
		return len(p), nil
	}
	return l.buf.Write(p)
}

func (l *limitedBuffer) String() string {
	return l.buf.String()
}
