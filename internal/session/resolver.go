package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SessionPath is the session-introspection endpoint of the portal API.
const SessionPath = "/api/user/auth/session"

const (
	defaultProbeTimeout = 10 * time.Second
	maxSessionBody      = 1 << 20
)

// Resolver asks the backend who the caller is. Implementations never fail:
// anything other than a well-formed user answer is the anonymous session.
type Resolver interface {
	Resolve(ctx context.Context) Session
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(ctx context.Context) Session

func (f ResolverFunc) Resolve(ctx context.Context) Session {
	return f(ctx)
}

// HTTPResolver probes GET /api/user/auth/session once per call, letting the
// HTTP client's cookie jar attach credentials. It keeps no cache.
type HTTPResolver struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
	metrics    *Metrics
}

// ResolverOption configures an HTTPResolver
type ResolverOption func(*HTTPResolver)

// WithProbeTimeout bounds each probe
func WithProbeTimeout(d time.Duration) ResolverOption {
	return func(r *HTTPResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithResolverLogger sets the logger used to report absorbed failures
func WithResolverLogger(logger zerolog.Logger) ResolverOption {
	return func(r *HTTPResolver) {
		r.logger = logger
	}
}

// WithResolverMetrics records probe outcomes
func WithResolverMetrics(m *Metrics) ResolverOption {
	return func(r *HTTPResolver) {
		r.metrics = m
	}
}

// NewHTTPResolver creates a resolver for the API at baseURL. httpClient
// should carry the cookie jar holding the login cookie.
func NewHTTPResolver(baseURL string, httpClient *http.Client, opts ...ResolverOption) *HTTPResolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	r := &HTTPResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		timeout:    defaultProbeTimeout,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// sessionResponse leaves user as raw JSON so a missing field, null and a
// malformed object can be told apart in the logs.
type sessionResponse struct {
	User json.RawMessage `json:"user"`
}

// Resolve performs the probe.
func (r *HTTPResolver) Resolve(ctx context.Context) Session {
	started := time.Now()

	s, err := r.probe(ctx)
	if err != nil {
		r.logger.Debug().Err(err).Msg("Session probe failed, treating as logged out")
		r.metrics.observeProbe(probeFailed, started)
		return Anonymous()
	}

	if s.Authenticated {
		r.metrics.observeProbe(probeAuthenticated, started)
	} else {
		r.metrics.observeProbe(probeAnonymous, started)
	}
	return s
}

func (r *HTTPResolver) probe(ctx context.Context) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+SessionPath, nil)
	if err != nil {
		return Anonymous(), fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Anonymous(), fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSessionBody))
	if err != nil {
		return Anonymous(), fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Anonymous(), fmt.Errorf("session check failed (status %d): %s", resp.StatusCode, string(body))
	}

	return decodeSession(body)
}

// decodeSession turns a session endpoint body into a Session. A null or
// absent user is a valid "not logged in" answer and is not an error.
func decodeSession(body []byte) (Session, error) {
	var payload sessionResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Anonymous(), fmt.Errorf("failed to decode response: %w", err)
	}

	if len(payload.User) == 0 || string(payload.User) == "null" {
		return Anonymous(), nil
	}

	var u User
	if err := json.Unmarshal(payload.User, &u); err != nil {
		return Anonymous(), fmt.Errorf("failed to decode user: %w", err)
	}

	s, err := NewSession(u)
	if err != nil {
		return Anonymous(), err
	}
	return s, nil
}
