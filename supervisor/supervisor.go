// Package supervisor runs one supervision cycle: execute the program under a
// wall-clock time limit, and on failure capture a best-effort diagnostic
// run, roll the program directory back to the stable release, and re-run.
package supervisor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wardenhq/warden/config"
	"github.com/wardenhq/warden/errors"
	"github.com/wardenhq/warden/timelimit"
)

// Supervisor-specific exit codes. Everything else surfaced by Supervise is
// the exit code of the last invocation it performed.
const (
	// ExitConfig means the supervisor could not even start a cycle
	// (no program given, unparseable time-limit override).
	ExitConfig = 78

	// ExitRollbackFailed means the stable release could not be fetched or
	// installed; the fallback run never happened.
	ExitRollbackFailed = 79
)

// LimitResolver resolves the cycle's time limit.
type LimitResolver interface {
	Resolve(ctx context.Context) (time.Duration, timelimit.Source, error)
}

// Rollbacker replaces the program directory with the stable release.
type Rollbacker interface {
	Rollback(ctx context.Context) error
}

// Supervisor wires the runner, time-limit resolver and rollbacker into the
// supervision state machine.
type Supervisor struct {
	cfg      *config.Config
	runner   Runner
	resolver LimitResolver
	rollback Rollbacker
	logger   *zap.SugaredLogger
}

// New creates a Supervisor.
func New(cfg *config.Config, runner Runner, resolver LimitResolver, rollback Rollbacker, logger *zap.SugaredLogger) *Supervisor {
	return &Supervisor{
		cfg:      cfg,
		runner:   runner,
		resolver: resolver,
		rollback: rollback,
		logger:   logger,
	}
}

// Supervise runs one full cycle with argv forwarded verbatim, in order, to
// every invocation (primary, diagnostic, fallback).
//
// The returned exit code is the last invocation's code: the primary's on
// success or when rollback is disabled, the fallback's otherwise. A non-nil
// error means the cycle itself broke (could not execute the program, could
// not roll back) and the code is one of the Exit* constants.
func (s *Supervisor) Supervise(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return ExitConfig, errors.New("no program to supervise")
	}

	limit, source, err := s.resolver.Resolve(ctx)
	if err != nil {
		return ExitConfig, errors.Wrap(err, "failed to resolve time limit")
	}
	s.logger.Infow("Starting supervised run",
		"program", argv[0],
		"args", argv[1:],
		"time_limit", limit,
		"limit_source", source)

	primary, err := s.runner.Run(ctx, argv, limit)
	if err != nil {
		return ExitConfig, errors.Wrap(err, "failed to execute program")
	}

	if primary.Succeeded() {
		s.logger.Infow("Run succeeded", "duration", primary.Duration)
		return 0, nil
	}

	// Timeout and ordinary failure both roll back, but log them apart.
	s.logger.Warnw("Run failed",
		"status", primary.Status.String(),
		"exit_code", primary.ExitCode,
		"duration", primary.Duration)

	if s.cfg.Rollback.Disabled {
		s.logger.Warnw("Rollback disabled, exiting with failing status",
			"exit_code", primary.ExitCode)
		return primary.ExitCode, nil
	}

	s.runDiagnostic(ctx, argv, limit)

	if err := s.rollback.Rollback(ctx); err != nil {
		// Distinct from "rolled back and the fallback also failed": the
		// stable release never made it into place.
		s.logger.Errorw("Rollback failed, fallback will not run", "error", err)
		return ExitRollbackFailed, errors.WrapRollbackInfrastructure(err, "rollback failed")
	}

	s.logger.Infow("Rolled back to stable release, re-running with original arguments")
	fallback, err := s.runner.Run(ctx, argv, limit)
	if err != nil {
		return ExitConfig, errors.Wrap(err, "failed to execute rolled-back program")
	}

	if fallback.Succeeded() {
		s.logger.Infow("Fallback run succeeded", "duration", fallback.Duration)
	} else {
		s.logger.Errorw("Fallback run failed",
			"status", fallback.Status.String(),
			"exit_code", fallback.ExitCode,
			"duration", fallback.Duration)
	}
	return fallback.ExitCode, nil
}

// runDiagnostic re-invokes the program with the diagnostic flag appended so
// it can upload logs from the failed run. Best-effort: its outcome never
// gates the rollback.
func (s *Supervisor) runDiagnostic(ctx context.Context, argv []string, limit time.Duration) {
	flag := s.cfg.Run.DiagnosticFlag
	if flag == "" {
		return
	}

	diagArgv := make([]string, 0, len(argv)+1)
	diagArgv = append(diagArgv, argv...)
	diagArgv = append(diagArgv, flag)

	s.logger.Infow("Uploading logs from the failed run", "flag", flag)
	outcome, err := s.runner.Run(ctx, diagArgv, limit)
	if err != nil {
		s.logger.Warnw("Diagnostic run could not be started", "error", err)
		return
	}
	if !outcome.Succeeded() {
		s.logger.Warnw("Diagnostic run failed",
			"status", outcome.Status.String(),
			"exit_code", outcome.ExitCode)
	}
}
