package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wardenhq/warden/config"
	"github.com/wardenhq/warden/errors"
	"github.com/wardenhq/warden/timelimit"
)

type fakeRunner struct {
	outcomes []Outcome
	startErr error
	calls    [][]string
	limits   []time.Duration
}

func (f *fakeRunner) Run(ctx context.Context, argv []string, limit time.Duration) (Outcome, error) {
	// Record a copy; the supervisor must not share slices between calls
	call := make([]string, len(argv))
	copy(call, argv)
	f.calls = append(f.calls, call)
	f.limits = append(f.limits, limit)

	if f.startErr != nil {
		return Outcome{}, f.startErr
	}
	if len(f.outcomes) == 0 {
		return Outcome{Status: StatusSuccess}, nil
	}
	out := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return out, nil
}

type fakeResolver struct {
	limit  time.Duration
	source timelimit.Source
	err    error
}

func (f *fakeResolver) Resolve(ctx context.Context) (time.Duration, timelimit.Source, error) {
	return f.limit, f.source, f.err
}

type fakeRollbacker struct {
	calls int
	err   error
}

func (f *fakeRollbacker) Rollback(ctx context.Context) error {
	f.calls++
	return f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Run: config.RunConfig{
			ProgramDir:     ".",
			DiagnosticFlag: "-f",
		},
	}
}

func newTestSupervisor(cfg *config.Config, runner *fakeRunner, rb *fakeRollbacker) *Supervisor {
	return New(cfg, runner, &fakeResolver{limit: 12 * time.Hour, source: timelimit.SourceDefault}, rb, zap.NewNop().Sugar())
}

func TestSuccessRunsNothingElse(t *testing.T) {
	runner := &fakeRunner{outcomes: []Outcome{{Status: StatusSuccess}}}
	rb := &fakeRollbacker{}
	s := newTestSupervisor(testConfig(), runner, rb)

	code, err := s.Supervise(context.Background(), []string{"agent", "--since", "2d"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Len(t, runner.calls, 1, "no diagnostic run, no fallback")
	assert.Equal(t, 0, rb.calls, "no rollback on success")
}

func TestFailureTriggersExactlyOneFallback(t *testing.T) {
	for _, exit := range []int{1, 2, 42, 143} {
		runner := &fakeRunner{outcomes: []Outcome{
			{Status: StatusFailure, ExitCode: exit}, // primary
			{Status: StatusSuccess},                 // diagnostic
			{Status: StatusSuccess},                 // fallback
		}}
		rb := &fakeRollbacker{}
		s := newTestSupervisor(testConfig(), runner, rb)

		code, err := s.Supervise(context.Background(), []string{"agent", "--since", "2d"})
		require.NoError(t, err)
		assert.Equal(t, 0, code)
		assert.Equal(t, 1, rb.calls, "exit %d must roll back exactly once", exit)
		require.Len(t, runner.calls, 3)

		// Arguments forwarded verbatim and in order to every invocation;
		// the diagnostic run appends the flag.
		assert.Equal(t, []string{"agent", "--since", "2d"}, runner.calls[0])
		assert.Equal(t, []string{"agent", "--since", "2d", "-f"}, runner.calls[1])
		assert.Equal(t, []string{"agent", "--since", "2d"}, runner.calls[2])

		// Same time limit bounds every invocation
		assert.Equal(t, []time.Duration{12 * time.Hour, 12 * time.Hour, 12 * time.Hour}, runner.limits)
	}
}

func TestRollbackDisabledExitsImmediately(t *testing.T) {
	cfg := testConfig()
	cfg.Rollback.Disabled = true

	runner := &fakeRunner{outcomes: []Outcome{{Status: StatusFailure, ExitCode: 7}}}
	rb := &fakeRollbacker{}
	s := newTestSupervisor(cfg, runner, rb)

	code, err := s.Supervise(context.Background(), []string{"agent"})
	require.NoError(t, err)
	assert.Equal(t, 7, code, "original failing status is preserved")
	assert.Len(t, runner.calls, 1, "no diagnostic run")
	assert.Equal(t, 0, rb.calls, "no rollback, no fetch")
}

func TestTimeoutRollsBackLikeFailure(t *testing.T) {
	runner := &fakeRunner{outcomes: []Outcome{
		{Status: StatusTimedOut, ExitCode: 137},
		{Status: StatusSuccess}, // diagnostic
		{Status: StatusSuccess}, // fallback
	}}
	rb := &fakeRollbacker{}
	s := newTestSupervisor(testConfig(), runner, rb)

	code, err := s.Supervise(context.Background(), []string{"agent"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, 1, rb.calls)
}

func TestFallbackFailurePropagates(t *testing.T) {
	runner := &fakeRunner{outcomes: []Outcome{
		{Status: StatusFailure, ExitCode: 1},
		{Status: StatusSuccess},
		{Status: StatusFailure, ExitCode: 3},
	}}
	rb := &fakeRollbacker{}
	s := newTestSupervisor(testConfig(), runner, rb)

	code, err := s.Supervise(context.Background(), []string{"agent"})
	require.NoError(t, err)
	assert.Equal(t, 3, code, "supervisor exits with the fallback's code")
}

func TestDiagnosticFailureDoesNotBlockRollback(t *testing.T) {
	runner := &fakeRunner{outcomes: []Outcome{
		{Status: StatusFailure, ExitCode: 1},
		{Status: StatusFailure, ExitCode: 9}, // diagnostic itself fails
		{Status: StatusSuccess},
	}}
	rb := &fakeRollbacker{}
	s := newTestSupervisor(testConfig(), runner, rb)

	code, err := s.Supervise(context.Background(), []string{"agent"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, 1, rb.calls)
}

func TestRollbackInfrastructureFailure(t *testing.T) {
	runner := &fakeRunner{outcomes: []Outcome{
		{Status: StatusFailure, ExitCode: 1},
		{Status: StatusSuccess}, // diagnostic
	}}
	rb := &fakeRollbacker{err: errors.New("connection refused")}
	s := newTestSupervisor(testConfig(), runner, rb)

	code, err := s.Supervise(context.Background(), []string{"agent"})
	require.Error(t, err)
	assert.Equal(t, ExitRollbackFailed, code)
	assert.True(t, errors.IsRollbackInfrastructure(err),
		"fetch/swap failure must be distinct from a failed fallback run")
	assert.Len(t, runner.calls, 2, "fallback never ran")
}

func TestEmptyDiagnosticFlagSkipsDiagnostic(t *testing.T) {
	cfg := testConfig()
	cfg.Run.DiagnosticFlag = ""

	runner := &fakeRunner{outcomes: []Outcome{
		{Status: StatusFailure, ExitCode: 1},
		{Status: StatusSuccess}, // fallback
	}}
	rb := &fakeRollbacker{}
	s := newTestSupervisor(cfg, runner, rb)

	code, err := s.Supervise(context.Background(), []string{"agent"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"agent"}, runner.calls[1])
}

func TestCannotExecuteProgramIsFatal(t *testing.T) {
	runner := &fakeRunner{startErr: errors.New("no such file or directory")}
	rb := &fakeRollbacker{}
	s := newTestSupervisor(testConfig(), runner, rb)

	code, err := s.Supervise(context.Background(), []string{"missing-binary"})
	require.Error(t, err)
	assert.Equal(t, ExitConfig, code)
	assert.Equal(t, 0, rb.calls)
}

func TestEmptyArgv(t *testing.T) {
	s := newTestSupervisor(testConfig(), &fakeRunner{}, &fakeRollbacker{})

	code, err := s.Supervise(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, ExitConfig, code)
}

func TestResolverErrorIsFatal(t *testing.T) {
	runner := &fakeRunner{}
	s := New(testConfig(), runner,
		&fakeResolver{err: errors.New("invalid time limit override")},
		&fakeRollbacker{}, zap.NewNop().Sugar())

	code, err := s.Supervise(context.Background(), []string{"agent"})
	require.Error(t, err)
	assert.Equal(t, ExitConfig, code)
	assert.Empty(t, runner.calls, "nothing runs with an unusable override")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "failure", StatusFailure.String())
	assert.Equal(t, "timed out", StatusTimedOut.String())
}
