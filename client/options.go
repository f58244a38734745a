package client

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Mode is where the backend puts the issued tokens
type Mode string

const (
	// ModeBody keeps tokens in the TokenStore and sends a bearer header
	ModeBody Mode = "body"
	// ModeCookie leaves tokens in httpOnly cookies held by the cookie jar
	ModeCookie Mode = "cookie"
)

const (
	defaultRefreshTimeout = 10 * time.Second
	defaultNetworkRetries = 1
)

// Options configures a Client
type Options struct {
	Mode Mode
	// RefreshTimeout bounds the shared refresh request
	RefreshTimeout time.Duration
	// NetworkRetries is how often an initial send is retried after a transport error
	NetworkRetries int
	// OnAuthFailure runs once per failed refresh, after tokens are cleared. It is
	// where the application sends the user back to the login page.
	OnAuthFailure func()
	HTTPClient    *http.Client
	Tokens        TokenStore
	Flows         FlowStore
	Logger        zerolog.Logger
}

type Option func(*Options)

func WithMode(mode Mode) Option {
	return func(o *Options) {
		o.Mode = mode
	}
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.RefreshTimeout = d
	}
}

func WithNetworkRetries(n int) Option {
	return func(o *Options) {
		o.NetworkRetries = n
	}
}

func WithOnAuthFailure(fn func()) Option {
	return func(o *Options) {
		o.OnAuthFailure = fn
	}
}

// WithHTTPClient replaces the default client. A client without a cookie jar gets one.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = c
	}
}

func WithTokenStore(store TokenStore) Option {
	return func(o *Options) {
		o.Tokens = store
	}
}

func WithFlowStore(store FlowStore) Option {
	return func(o *Options) {
		o.Flows = store
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func defaultOptions() Options {
	return Options{
		Mode:           ModeCookie,
		RefreshTimeout: defaultRefreshTimeout,
		NetworkRetries: defaultNetworkRetries,
		Logger:         zerolog.Nop(),
	}
}
