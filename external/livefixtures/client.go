package livefixtures

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/campus-sports/livematch/internal/domain/fixture"
	"github.com/campus-sports/livematch/internal/platform/logging"
	"github.com/campus-sports/livematch/internal/platform/resilience"
	"github.com/campus-sports/livematch/internal/usecase"
)

const maxResponseBytes = 4 << 20

var errTransient = crerr.New("live fixtures transient failure")
var errDomainRejected = crerr.New("live fixtures backend rejected request")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the live-fixtures backend over its existing REST surface.
// Every response rides the platform envelope {code, message, data}; code
// "99" is a domain failure even on HTTP 200, so callers branch on it here
// rather than on HTTP status alone.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

var _ usecase.LiveFixtureStore = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) FetchLiveFixture(ctx context.Context, fixtureID string) (usecase.LiveFixtureDocument, error) {
	path := "/live-fixtures/fixtures/" + fixtureID

	var payload liveFixturePayload
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return usecase.LiveFixtureDocument{}, fmt.Errorf("fetch live fixture id=%s: %w", fixtureID, err)
	}
	if payload.ID == "" {
		payload.ID = fixtureID
	}

	doc, err := documentFromPayload(payload)
	if err != nil {
		return usecase.LiveFixtureDocument{}, fmt.Errorf("decode live fixture id=%s: %w", fixtureID, err)
	}
	return doc, nil
}

func (c *Client) FetchRosters(ctx context.Context, fixtureID string) (fixture.Team, fixture.Team, error) {
	path := "/live-fixtures/fixtures/" + fixtureID + "/players"

	var payload playersPayload
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return fixture.Team{}, fixture.Team{}, fmt.Errorf("fetch rosters fixture=%s: %w", fixtureID, err)
	}

	home := fixture.Team{Players: playersToDomain("", payload.Home)}
	away := fixture.Team{Players: playersToDomain("", payload.Away)}
	if len(home.Players) > 0 {
		home.ID = home.Players[0].TeamID
	}
	if len(away.Players) > 0 {
		away.ID = away.Players[0].TeamID
	}
	return home, away, nil
}

func (c *Client) UpdateLiveFixture(ctx context.Context, fixtureID string, update usecase.LiveFixtureUpdate) error {
	path := "/live-fixtures/update/" + fixtureID
	if err := c.putJSON(ctx, path, updateToWire(update)); err != nil {
		return fmt.Errorf("update live fixture id=%s: %w", fixtureID, err)
	}
	return nil
}

func (c *Client) UpdateFormation(ctx context.Context, fixtureID string, update usecase.FormationUpdate) error {
	path := "/fixture/" + fixtureID + "/formation"
	body := formationRequest{
		HomeLineup: snapshotToWire(update.Home),
		AwayLineup: snapshotToWire(update.Away),
	}
	if err := c.putJSON(ctx, path, body); err != nil {
		return fmt.Errorf("update formation fixture=%s: %w", fixtureID, err)
	}
	return nil
}

// getJSON fetches path and decodes the envelope's data field into target.
// Concurrent reads for the same path are deduplicated.
func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	out, err, _ := c.flight.Do(path, func() (any, error) {
		return c.do(ctx, http.MethodGet, path, nil)
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	var decoded struct {
		envelope
		Data json.RawMessage `json:"data"`
	}
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode backend envelope: %w", err)
	}
	if decoded.Code != codeOK {
		return crerr.Wrapf(errDomainRejected, "code=%s message=%s", decoded.Code, decoded.Message)
	}
	if len(decoded.Data) == 0 {
		return fmt.Errorf("backend envelope has no data")
	}
	if err := sonic.Unmarshal(decoded.Data, target); err != nil {
		return fmt.Errorf("decode backend payload: %w", err)
	}

	return nil
}

// putJSON encodes body and sends it; only the envelope code matters on the
// way back.
func (c *Client) putJSON(ctx context.Context, path string, body any) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	encoded, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	_, _ = buf.Write(encoded)

	raw, err := c.do(ctx, http.MethodPut, path, buf.Bytes())
	if err != nil {
		return err
	}

	var decoded envelope
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode backend envelope: %w", err)
	}
	if decoded.Code != codeOK {
		return crerr.Wrapf(errDomainRejected, "code=%s message=%s", decoded.Code, decoded.Message)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "live fixtures circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: live fixtures backend is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.execute(ctx, method, c.baseURL+path, body)
	if c.circuitEnabled {
		if err != nil && isCircuitFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}

	return raw, err
}

func (c *Client) execute(ctx context.Context, method, fullURL string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = strings.NewReader(string(body))
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errTransient, redactToken(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: backend status=404", usecase.ErrNotFound)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: backend status=%d body=%s", errTransient, resp.StatusCode, abbreviate(raw))
			default:
				return nil, fmt.Errorf("backend status=%d body=%s", resp.StatusCode, abbreviate(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * 500 * time.Millisecond
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("backend request failed")
	}
	c.logger.WarnContext(ctx, "live fixtures request failed", "method", method, "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// isCircuitFailure counts only infrastructure failures toward opening the
// breaker; domain rejections and not-found answers are healthy responses.
func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, usecase.ErrNotFound) || stderrors.Is(err, errDomainRejected) {
		return false
	}
	return true
}

// IsDomainRejected reports whether the backend answered with envelope code
// "99".
func IsDomainRejected(err error) bool {
	return stderrors.Is(err, errDomainRejected)
}

// IsTransient reports whether the failure is worth retrying later.
func IsTransient(err error) bool {
	return stderrors.Is(err, errTransient)
}

func redactToken(value, token string) string {
	value = strings.TrimSpace(value)
	if token == "" || value == "" {
		return value
	}
	return strings.ReplaceAll(value, token, "REDACTED")
}

func abbreviate(raw []byte) string {
	const max = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > max {
		return body[:max] + "..."
	}
	return body
}
