package export

import (
	"context"
	stderrors "errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ajitpratap0/mongoextract/pkg/errors"
)

// maxStderr is how much of the tool's stderr is kept for error reports
const maxStderr = 4096

// waitDelay bounds the wait for output pipes after the shell is killed
const waitDelay = 2 * time.Second

// CommandRunner runs an already escaped command line
type CommandRunner interface {
	Run(ctx context.Context, command string) error
}

// ShellRunner runs commands through a POSIX shell with "-c"
type ShellRunner struct {
	// Shell is the shell executable; /bin/sh when empty
	Shell string
	// Timeout bounds a single command; zero means no limit besides ctx
	Timeout time.Duration
}

// NewShellRunner creates a runner
func NewShellRunner(shell string, timeout time.Duration) *ShellRunner {
	if shell == "" {
		shell = "/bin/sh"
	}
	return &ShellRunner{Shell: shell, Timeout: timeout}
}

// Run executes command and waits for it. Errors never include the command
// itself since it carries the connection password.
func (r *ShellRunner) Run(ctx context.Context, command string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	stderr := &tailBuffer{limit: maxStderr}
	cmd := exec.CommandContext(ctx, r.Shell, "-c", command) //nolint:gosec // G204: command is built from quoted arguments
	cmd.Stderr = stderr
	// children of the shell may outlive it and keep stderr open
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); stderrors.Is(ctxErr, context.DeadlineExceeded) {
		return errors.Wrap(ctxErr, errors.ErrorTypeTimeout, "export command timed out").
			WithDetail("timeout", r.Timeout.String())
	}
	if ctx.Err() != nil {
		return errors.Wrap(ctx.Err(), errors.ErrorTypeProcess, "export command cancelled")
	}

	e := errors.Wrap(err, errors.ErrorTypeProcess, "export command failed")
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		e = e.WithDetail("exit_code", exitErr.ExitCode())
	}
	if out := strings.TrimSpace(stderr.String()); out != "" {
		e = e.WithDetail("stderr", out)
	}
	return e
}

// tailBuffer keeps the last limit bytes written to it
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
