// Package timelimit resolves the wall-clock bound for one supervised run.
//
// Resolution order:
//  1. explicit override (flag or WARDEN_TIME_LIMIT), used verbatim
//  2. remote lookup against the control plane's time-limit endpoint
//  3. the hardcoded default ("12h")
//
// The remote lookup is best-effort: network and parse failures degrade to
// the default, because the supervised job must still attempt to run.
package timelimit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wardenhq/warden/config"
	"github.com/wardenhq/warden/errors"
	"github.com/wardenhq/warden/internal/httpclient"
)

// Source records where a resolved limit came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceRemote   Source = "remote"
	SourceDefault  Source = "default"
)

// lookupTimeout bounds the remote lookup itself; it must never eat into the
// supervised run's budget in a meaningful way.
const lookupTimeout = 30 * time.Second

// limitResponse is the control plane's time-limit endpoint payload.
type limitResponse struct {
	TimeLimitString string `json:"time_limit_string"`
}

// Resolver resolves the time limit for one supervision cycle.
type Resolver struct {
	cfg    config.TimeLimitConfig
	token  string
	client *httpclient.Client
	logger *zap.SugaredLogger
}

// NewResolver creates a Resolver from configuration.
func NewResolver(cfg config.TimeLimitConfig, token string, logger *zap.SugaredLogger) *Resolver {
	return &Resolver{
		cfg:   cfg,
		token: token,
		client: httpclient.New(lookupTimeout, httpclient.Options{
			BlockPrivateIP: cfg.StrictNetworking,
		}),
		logger: logger,
	}
}

// Resolve returns the time limit for this cycle and where it came from.
//
// An override is used verbatim; a malformed override is a hard error since
// the operator asked for something specific and silently running 12h
// instead would be worse. Remote lookup failures degrade to the default.
func (r *Resolver) Resolve(ctx context.Context) (time.Duration, Source, error) {
	if r.cfg.Override != "" {
		d, err := time.ParseDuration(r.cfg.Override)
		if err != nil {
			return 0, SourceOverride, errors.Wrapf(err, "invalid time limit override %q", r.cfg.Override)
		}
		return d, SourceOverride, nil
	}

	if r.cfg.Endpoint != "" {
		if d, err := r.fetchRemote(ctx); err != nil {
			r.logger.Warnw("Time-limit lookup failed, using default",
				"endpoint", r.cfg.Endpoint,
				"default", r.cfg.Default,
				"error", err)
		} else {
			return d, SourceRemote, nil
		}
	}

	fallback := r.cfg.Default
	if fallback == "" {
		fallback = config.DefaultTimeLimit
	}
	d, err := time.ParseDuration(fallback)
	if err != nil {
		// A broken configured default still must not stop the run
		r.logger.Warnw("Invalid default time limit, using built-in",
			"configured", fallback,
			"builtin", config.DefaultTimeLimit)
		d, _ = time.ParseDuration(config.DefaultTimeLimit)
	}
	return d, SourceDefault, nil
}

// fetchRemote queries the control plane for this agent's time limit.
func (r *Resolver) fetchRemote(ctx context.Context) (time.Duration, error) {
	u, err := r.client.ValidateURL(r.cfg.Endpoint)
	if err != nil {
		return 0, errors.Wrap(err, "invalid time-limit endpoint")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build request")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Newf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return 0, errors.Wrap(err, "failed to read response")
	}

	var payload limitResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, errors.Wrapf(err, "failed to parse response: %s", string(body))
	}
	if payload.TimeLimitString == "" {
		return 0, errors.New("response missing time_limit_string")
	}

	d, err := time.ParseDuration(payload.TimeLimitString)
	if err != nil {
		return 0, errors.Wrapf(err, "unparseable time limit %q", payload.TimeLimitString)
	}

	r.logger.Debugw("Resolved time limit from control plane",
		"endpoint", r.cfg.Endpoint,
		"limit", d)
	return d, nil
}
