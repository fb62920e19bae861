package supervisor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/wardenhq/warden/errors"
)

// Runner executes the supervised program once, bounded by a time limit.
type Runner interface {
	// Run invokes argv[0] with argv[1:] and blocks until it exits or the
	// limit expires. A non-nil error means the program could not be run at
	// all (missing binary, permission); it is never used for a program
	// that ran and failed.
	Run(ctx context.Context, argv []string, limit time.Duration) (Outcome, error)
}

// ExecRunner runs the program as a child process in the program directory.
//
// The child gets its own process group so a timeout can take the whole
// process tree down, not just the direct child.
type ExecRunner struct {
	// Dir is the working directory for every invocation. Empty means the
	// supervisor's own working directory.
	Dir string

	// Stdout and Stderr receive the child's output. Nil defaults to the
	// supervisor's own streams; warden logs go to stderr via zap so the
	// child's stdout stays untouched.
	Stdout io.Writer
	Stderr io.Writer

	Logger *zap.SugaredLogger
}

// NewExecRunner creates an ExecRunner rooted at dir.
func NewExecRunner(dir string, logger *zap.SugaredLogger) *ExecRunner {
	return &ExecRunner{
		Dir:    dir,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, argv []string, limit time.Duration) (Outcome, error) {
	if len(argv) == 0 {
		return Outcome{}, errors.New("empty argument vector")
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if limit > 0 {
		runCtx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Env = os.Environ()
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Outcome{}, errors.Wrapf(err, "failed to start %q", argv[0])
	}

	r.Logger.Debugw("Child process started",
		"pid", cmd.Process.Pid,
		"program", argv[0],
		"limit", limit)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timedOut := false
	select {
	case <-runCtx.Done():
		timedOut = true
		r.Logger.Warnw("Time limit exceeded, killing process tree",
			"pid", cmd.Process.Pid,
			"limit", limit,
			"elapsed", time.Since(start))
		killTree(r.Logger, cmd.Process.Pid)
		<-done
	case err := <-done:
		_ = err // exit status is read from ProcessState below
	}

	elapsed := time.Since(start)
	code := exitCode(cmd.ProcessState)

	outcome := Outcome{ExitCode: code, Duration: elapsed}
	switch {
	case timedOut:
		outcome.Status = StatusTimedOut
	case code == 0:
		outcome.Status = StatusSuccess
	default:
		outcome.Status = StatusFailure
	}
	return outcome, nil
}

// exitCode derives the shell-visible exit code from a finished process.
// A signal-terminated child maps to 128+signal, matching what a shell
// would report (137 for SIGKILL, 143 for SIGTERM).
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	if code := state.ExitCode(); code >= 0 {
		return code
	}
	if sig, ok := terminationSignal(state); ok {
		return 128 + int(sig)
	}
	return 1
}
