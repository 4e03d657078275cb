// ABOUTME: Hosted backend gateway speaking PostgREST for tables and GoTrue for auth
// ABOUTME: Uses resty for HTTP and an oauth2 token source for access token refresh
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const defaultRESTTimeout = 30 * time.Second

// REST talks to a hosted backend over HTTP.
type REST struct {
	http       *resty.Client
	httpClient *http.Client
	anonKey    string
	cache      SessionCache
	logger     *zap.Logger
	now        func() time.Time

	mu        sync.RWMutex
	session   *Session
	refreshed *Session
	tokens    oauth2.TokenSource

	events listeners
}

// RESTOption configures a REST gateway.
type RESTOption func(*REST)

// WithSessionCache persists the session between runs.
func WithSessionCache(cache SessionCache) RESTOption {
	return func(g *REST) { g.cache = cache }
}

// WithHTTPClient swaps the underlying HTTP client, e.g. for tests.
func WithHTTPClient(c *http.Client) RESTOption {
	return func(g *REST) { g.httpClient = c }
}

// NewREST creates a gateway for the backend at baseURL. A cached session,
// if any, is restored.
func NewREST(baseURL, anonKey string, logger *zap.Logger, opts ...RESTOption) *REST {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &REST{
		anonKey: anonKey,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.http = newRESTClient(g.httpClient, baseURL, anonKey)

	if g.cache != nil {
		cached, err := g.cache.Load()
		if err != nil {
			logger.Warn("discarding cached session", zap.Error(err))
		} else if cached != nil {
			g.setSession(cached)
		}
	}

	return g
}

func newRESTClient(hc *http.Client, baseURL, anonKey string) *resty.Client {
	var client *resty.Client
	if hc != nil {
		client = resty.NewWithClient(hc)
	} else {
		client = resty.New()
	}
	return client.
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(defaultRESTTimeout).
		SetHeader("apikey", anonKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// Select implements Tables.
func (g *REST) Select(ctx context.Context, q *Query, dest any) error {
	req, err := g.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetQueryParamsFromValues(q.Params()).
		Get("/rest/v1/" + q.Table())
	if err != nil {
		return fmt.Errorf("select %s: %w", q.Table(), err)
	}
	if resp.IsError() {
		return fmt.Errorf("select %s: %w", q.Table(), decodeAPIError(resp))
	}

	return decodeRows(resp.Body(), q, dest)
}

// Insert implements Tables.
func (g *REST) Insert(ctx context.Context, table string, row any) error {
	req, err := g.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetHeader("Prefer", "return=minimal").
		SetBody(row).
		Post("/rest/v1/" + table)
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	if resp.IsError() {
		return fmt.Errorf("insert %s: %w", table, decodeAPIError(resp))
	}
	return nil
}

// Update implements Tables.
func (g *REST) Update(ctx context.Context, table string, id uuid.UUID, patch any) error {
	req, err := g.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetHeader("Prefer", "return=minimal").
		SetQueryParam("id", "eq."+id.String()).
		SetBody(patch).
		Patch("/rest/v1/" + table)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("update %s %s: %w", table, id, decodeAPIError(resp))
	}
	return nil
}

// Delete implements Tables.
func (g *REST) Delete(ctx context.Context, table string, id uuid.UUID) error {
	req, err := g.request(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		SetHeader("Prefer", "return=minimal").
		SetQueryParam("id", "eq."+id.String()).
		Delete("/rest/v1/" + table)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete %s %s: %w", table, id, decodeAPIError(resp))
	}
	return nil
}

// request builds a request authorized with the session token, or the anon
// key when signed out.
func (g *REST) request(ctx context.Context) (*resty.Request, error) {
	token := g.anonKey

	g.mu.RLock()
	tokens := g.tokens
	g.mu.RUnlock()

	if tokens != nil {
		t, err := tokens.Token()
		g.announceRefresh()
		if err != nil {
			return nil, fmt.Errorf("failed to refresh session: %w", err)
		}
		token = t.AccessToken
	}

	return g.http.R().SetContext(ctx).SetAuthToken(token), nil
}

// errorBody covers both PostgREST and GoTrue error shapes.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func decodeAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode()}

	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return apiErr
	}

	switch {
	case body.ErrorCode != "":
		apiErr.Code = body.ErrorCode
	case body.Error != "":
		apiErr.Code = body.Error
	case len(body.Code) > 0:
		var code string
		if json.Unmarshal(body.Code, &code) == nil {
			apiErr.Code = code
		}
	}

	for _, msg := range []string{body.Message, body.Msg, body.ErrorDescription, body.Error} {
		if msg != "" {
			apiErr.Message = msg
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}

// IsAPIStatus reports whether err carries a backend error with status.
func IsAPIStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
