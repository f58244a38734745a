package fakeprovider

import (
	"context"
	"sync"

	"github.com/jrsteele09/smartbill-auth/identity"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
)

var _ identity.Provider = (*FakeProvider)(nil)

// FakeProvider returns a fixed profile per authorization code.
type FakeProvider struct {
	profiles map[string]*identity.Profile
	err      error
	calls    int
	lock     sync.Mutex
}

func New() *FakeProvider {
	return &FakeProvider{profiles: make(map[string]*identity.Profile)}
}

// AddCode makes code redeemable for profile
func (p *FakeProvider) AddCode(code string, profile identity.Profile) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.profiles[code] = &profile
}

// FailWith makes every exchange return err
func (p *FakeProvider) FailWith(err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.err = err
}

func (p *FakeProvider) Exchange(_ context.Context, code, verifier, _ string) (*identity.Profile, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if verifier == "" {
		return nil, &errors.UpstreamError{Code: "invalid_grant", Description: "Missing code verifier."}
	}
	profile, ok := p.profiles[code]
	if !ok {
		return nil, &errors.UpstreamError{Code: "invalid_grant", Description: "Malformed auth code.", StatusCode: 400}
	}
	copied := *profile
	return &copied, nil
}

// Calls counts Exchange invocations
func (p *FakeProvider) Calls() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.calls
}
