// Package client is the browser side of the SmartBill login: it starts the PKCE
// flow, completes the callback exchange and sends authenticated requests that
// refresh an expired session once and replay the original request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/smartbill-auth/api"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/users"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// Backend paths
const (
	PathAuthGoogle  = "/auth/google"
	PathAuthRefresh = "/auth/refresh"
	PathAuthLogout  = "/auth/logout"
	PathUserMe      = "/user/me"
	PathUserRole    = "/user/role"
)

const maxResponseBytes = 1 << 20

// Session cookie names set by the backend in cookie mode
const (
	accessTokenCookie  = "auth_token"
	refreshTokenCookie = "refresh_token"
)

// Request is one API call. Body is buffered so the call can be replayed
// byte-for-byte after a refresh.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
	// Retry marks a replay. A replay that gets a 401 is terminal.
	Retry bool
}

// Response is a fully read backend response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client sends requests to the SmartBill backend on behalf of one signed-in user
type Client struct {
	baseURL     string
	http        *http.Client
	mode        Mode
	tokens      TokenStore
	flows       FlowStore
	coordinator *Coordinator
	retries     int
	onFailure   func()
	logger      zerolog.Logger
}

// New creates a client for the backend at baseURL
func New(baseURL string, options ...Option) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, errors.New("[client New] base URL is required")
	}

	opts := defaultOptions()
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Mode != ModeBody && opts.Mode != ModeCookie {
		return nil, fmt.Errorf("[client New] unknown mode %q", opts.Mode)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("[client New] cookie jar: %w", err)
		}
		copied := *httpClient
		copied.Jar = jar
		httpClient = &copied
	}
	if opts.Tokens == nil {
		opts.Tokens = NewInMemoryTokenStore()
	}
	if opts.Flows == nil {
		opts.Flows = NewInMemoryFlowStore()
	}
	if opts.NetworkRetries < 0 {
		opts.NetworkRetries = 0
	}

	c := &Client{
		baseURL:   baseURL,
		http:      httpClient,
		mode:      opts.Mode,
		tokens:    opts.Tokens,
		flows:     opts.Flows,
		retries:   opts.NetworkRetries,
		onFailure: opts.OnAuthFailure,
		logger:    opts.Logger,
	}
	c.coordinator = NewCoordinator(c.refreshTokens, c.teardown, opts.RefreshTimeout, opts.Logger)
	return c, nil
}

func (c *Client) Coordinator() *Coordinator {
	return c.coordinator
}

func (c *Client) Tokens() TokenStore {
	return c.tokens
}

func (c *Client) Flows() FlowStore {
	return c.flows
}

// IsAuthenticated reports whether the client holds a session worth sending
// requests with, without asking the backend. An expired access token still
// counts while a refresh token is held.
func (c *Client) IsAuthenticated() bool {
	if c.coordinator.Outcome() == OutcomeFailure {
		return false
	}
	if c.mode == ModeCookie {
		return c.hasCookie("/", accessTokenCookie) || c.hasCookie(PathAuthRefresh, refreshTokenCookie)
	}

	tokens, err := c.tokens.Get()
	if err != nil {
		return false
	}
	return !tokens.Expired(time.Now()) || tokens.RefreshToken != ""
}

// hasCookie reports whether the jar would send cookie name with a request to path
func (c *Client) hasCookie(path, name string) bool {
	if c.http.Jar == nil {
		return false
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return false
	}
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == name && cookie.Value != "" {
			return true
		}
	}
	return false
}

// Do sends req with the current credentials. On a 401 it asks the coordinator
// for fresh credentials and replays req once. Other non-2xx responses are
// returned as responses.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	generation := c.coordinator.Generation()

	retries := c.retries
	if req.Retry {
		retries = 0
	}
	resp, err := c.send(ctx, req, true, retries)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if req.Retry {
		c.logger.Warn().Str("path", req.Path).Msg("replayed request rejected, ending session")
		c.coordinator.Fail()
		return nil, fmt.Errorf("[Client Do] %w", errors.ErrAuthenticationFailed)
	}

	if err := c.coordinator.Refresh(ctx, generation); err != nil {
		return nil, err
	}
	req.Retry = true
	return c.Do(ctx, req)
}

// GetCurrentUser returns the signed-in user
func (c *Client) GetCurrentUser(ctx context.Context) (*users.User, error) {
	return c.doUser(ctx, Request{Method: http.MethodGet, Path: PathUserMe})
}

// ChangeRole sets the signed-in user's role
func (c *Client) ChangeRole(ctx context.Context, role string) (*users.User, error) {
	body, err := json.Marshal(api.ChangeRoleRequest{Role: role})
	if err != nil {
		return nil, fmt.Errorf("[Client ChangeRole] %w", err)
	}
	return c.doUser(ctx, Request{Method: http.MethodPost, Path: PathUserRole, Body: body})
}

// Logout asks the backend to revoke the session and always clears local state.
// It does not invoke OnAuthFailure.
func (c *Client) Logout(ctx context.Context) error {
	var body []byte
	if c.mode == ModeBody {
		if tokens, err := c.tokens.Get(); err == nil && tokens.RefreshToken != "" {
			body, _ = json.Marshal(api.RefreshRequest{RefreshToken: tokens.RefreshToken})
		}
	}

	_, err := c.send(ctx, Request{Method: http.MethodPost, Path: PathAuthLogout, Body: body}, true, 0)
	c.clearLocal()
	if err != nil {
		return fmt.Errorf("[Client Logout] %w", err)
	}
	return nil
}

func (c *Client) doUser(ctx context.Context, req Request) (*users.User, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newExchangeError(resp)
	}
	var user users.User
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		return nil, fmt.Errorf("[Client %s %s] decode user: %w", req.Method, req.Path, err)
	}
	return &user, nil
}

// send performs one request, retrying transport errors up to retries times
func (c *Client) send(ctx context.Context, req Request, withAuth bool, retries int) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		resp, err := c.sendOnce(ctx, req, withAuth)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		c.logger.Debug().Err(err).Int("attempt", attempt+1).Str("path", req.Path).Msg("request failed")
	}
	return nil, lastErr
}

func (c *Client) sendOnce(ctx context.Context, req Request, withAuth bool) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("[Client send] %w", err)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if withAuth && c.mode == ModeBody {
		if tokens, err := c.tokens.Get(); err == nil && tokens.AccessToken != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		}
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("[Client send] %w: %w", errors.ErrNetwork, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("[Client send] %w: %w", errors.ErrNetwork, err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// refreshTokens is the coordinator's refresh request. In body mode the new
// tokens are stored by the returned commit.
func (c *Client) refreshTokens(ctx context.Context) (func() error, error) {
	var body []byte
	if c.mode == ModeBody {
		tokens, err := c.tokens.Get()
		if err != nil || tokens.RefreshToken == "" {
			return nil, fmt.Errorf("[Client refresh] %w: no refresh token", errors.ErrRefreshExpiredOrInvalid)
		}
		body, _ = json.Marshal(api.RefreshRequest{RefreshToken: tokens.RefreshToken})
	}

	resp, err := c.sendOnce(ctx, Request{Method: http.MethodPost, Path: PathAuthRefresh, Body: body}, false)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("[Client refresh] %w: %s", errors.ErrRefreshExpiredOrInvalid, errorDetail(resp))
	case resp.StatusCode != http.StatusOK:
		return nil, newExchangeError(resp)
	}

	if c.mode == ModeCookie {
		return nil, nil
	}
	var tr api.SessionResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return nil, fmt.Errorf("[Client refresh] decode: %w", err)
	}
	return func() error { return c.storeTokens(tr) }, nil
}

func (c *Client) storeTokens(tr api.SessionResponse) error {
	if c.mode != ModeBody {
		return nil
	}
	return c.tokens.Upsert(Tokens{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	})
}

// teardown runs after a failed refresh
func (c *Client) teardown() {
	c.clearLocal()
	if c.onFailure != nil {
		c.onFailure()
	}
}

// clearLocal drops client-held credentials. Session cookies are expired by the
// backend on logout and on a rejected refresh.
func (c *Client) clearLocal() {
	if err := c.tokens.Delete(); err != nil {
		c.logger.Error().Err(err).Msg("clearing tokens")
	}
	if err := c.flows.Clear(); err != nil {
		c.logger.Error().Err(err).Msg("clearing login flow")
	}
}
