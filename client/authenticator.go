package client

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/jrsteele09/smartbill-auth/api"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/pkce"
	"github.com/jrsteele09/smartbill-auth/users"
)

// loginLatchTTL is how long a completed callback answers duplicates
const loginLatchTTL = 10 * time.Minute

// LoginResult is a completed login
type LoginResult struct {
	User      *users.User
	ExpiresIn time.Duration
}

type loginCall struct {
	done   chan struct{}
	result *LoginResult
	err    error
}

// Authenticator runs the browser half of the authorization-code flow
type Authenticator struct {
	client  *Client
	cfg     pkce.AuthConfig
	random  io.Reader
	nowFunc func() time.Time
	latches *ttlcache.Cache[string, *loginCall]
}

type AuthenticatorOption func(*Authenticator)

// WithRandom replaces crypto/rand as the source of state and verifier
func WithRandom(r io.Reader) AuthenticatorOption {
	return func(a *Authenticator) {
		a.random = r
	}
}

func NewAuthenticator(c *Client, cfg pkce.AuthConfig, opts ...AuthenticatorOption) (*Authenticator, error) {
	if c == nil {
		return nil, errors.New("[NewAuthenticator] client is required")
	}
	if cfg.ClientID == "" || cfg.RedirectURI == "" {
		return nil, errors.New("[NewAuthenticator] client id and redirect uri are required")
	}

	a := &Authenticator{
		client:  c,
		cfg:     cfg,
		random:  rand.Reader,
		nowFunc: time.Now,
		latches: ttlcache.New(
			ttlcache.WithTTL[string, *loginCall](loginLatchTTL),
			ttlcache.WithDisableTouchOnHit[string, *loginCall](),
		),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// BeginLogin creates a fresh state and verifier, stores them in the flow store and
// returns the provider URL to navigate to. Nothing is stored if entropy fails.
func (a *Authenticator) BeginLogin(_ context.Context) (string, error) {
	ch, err := pkce.GenerateChallengeFrom(a.random)
	if err != nil {
		return "", fmt.Errorf("[Authenticator BeginLogin] %w", err)
	}
	authURL, err := pkce.BuildAuthorizationURL(a.cfg, ch)
	if err != nil {
		return "", fmt.Errorf("[Authenticator BeginLogin] %w", err)
	}
	if err := a.client.flows.Save(Flow{State: ch.State, Verifier: ch.Verifier, CreatedAt: a.nowFunc()}); err != nil {
		return "", fmt.Errorf("[Authenticator BeginLogin] %w", err)
	}
	return authURL, nil
}

// CompleteLogin handles the provider redirect. Invocations with the same code and
// state share one exchange; later ones get the first one's result.
func (a *Authenticator) CompleteLogin(ctx context.Context, code, state string) (*LoginResult, error) {
	a.latches.DeleteExpired()

	call := &loginCall{done: make(chan struct{})}
	item, found := a.latches.GetOrSet(code+"\x00"+state, call)
	if found {
		existing := item.Value()
		select {
		case <-existing.done:
			return existing.result, existing.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call.result, call.err = a.completeLogin(ctx, code, state)
	close(call.done)
	return call.result, call.err
}

func (a *Authenticator) completeLogin(ctx context.Context, code, state string) (*LoginResult, error) {
	flow, err := a.client.flows.Load()
	// the stored flow is single use whatever happens next
	if clearErr := a.client.flows.Clear(); clearErr != nil {
		a.client.logger.Error().Err(clearErr).Msg("clearing login flow")
	}
	if err != nil {
		return nil, fmt.Errorf("[Authenticator CompleteLogin] no pending login: %w", errors.ErrStateMismatch)
	}
	if state == "" || subtle.ConstantTimeCompare([]byte(flow.State), []byte(state)) != 1 {
		return nil, fmt.Errorf("[Authenticator CompleteLogin] %w", errors.ErrStateMismatch)
	}
	if code == "" {
		return nil, fmt.Errorf("[Authenticator CompleteLogin] %w: missing code", errors.ErrInvalidRequest)
	}

	body, err := json.Marshal(api.ExchangeRequest{
		Code:         code,
		State:        state,
		CodeVerifier: flow.Verifier,
		RedirectURI:  a.cfg.RedirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("[Authenticator CompleteLogin] %w", err)
	}

	resp, err := a.client.send(ctx, Request{Method: http.MethodPost, Path: PathAuthGoogle, Body: body}, false, 0)
	if err != nil {
		return nil, fmt.Errorf("[Authenticator CompleteLogin] %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newExchangeError(resp)
	}

	var tr api.SessionResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return nil, fmt.Errorf("[Authenticator CompleteLogin] decode: %w", err)
	}
	if err := a.client.storeTokens(tr); err != nil {
		return nil, fmt.Errorf("[Authenticator CompleteLogin] %w", err)
	}
	a.client.coordinator.Reset()

	return &LoginResult{
		User:      tr.User,
		ExpiresIn: time.Duration(tr.ExpiresIn) * time.Second,
	}, nil
}
