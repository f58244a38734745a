package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

const minSecretLength = 32

type SecurityConfig interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetEnableRateLimiting() bool
	GetRateLimit() (perSecond float64, burst int)
	GetTrustedProxies() []netip.Prefix
}

type Security struct {
	AccessTokenSecret  string  `env:"JWT_SECRET"`
	RefreshTokenSecret string  `env:"JWT_REFRESH_SECRET"`
	EnableRateLimiting bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RatePerSecond      float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"5"`
	RateBurst          int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
	// TrustedProxies lists the addresses or CIDRs allowed to set X-Forwarded-For
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

var _ SecurityConfig = Security{}

func (s Security) GetAccessTokenSecret() string {
	return s.AccessTokenSecret
}

func (s Security) GetRefreshTokenSecret() string {
	return s.RefreshTokenSecret
}

func (s Security) GetEnableRateLimiting() bool {
	return s.EnableRateLimiting
}

func (s Security) GetRateLimit() (float64, int) {
	return s.RatePerSecond, s.RateBurst
}

// GetTrustedProxies returns the parsed TRUSTED_PROXIES. Entries that do not
// parse are skipped; validate rejects them at load time.
func (s Security) GetTrustedProxies() []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		if p, err := parseProxy(raw); err == nil {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}

// parseProxy accepts a CIDR or a single address
func parseProxy(raw string) (netip.Prefix, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		return p.Masked(), err
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func (s Security) validate(dev bool) error {
	if s.AccessTokenSecret == "" || s.RefreshTokenSecret == "" {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET are required")
	}
	if s.AccessTokenSecret == s.RefreshTokenSecret {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if !dev && (len(s.AccessTokenSecret) < minSecretLength || len(s.RefreshTokenSecret) < minSecretLength) {
		return fmt.Errorf("signing secrets must be at least %d bytes outside DEV", minSecretLength)
	}
	for _, raw := range s.TrustedProxies {
		if _, err := parseProxy(raw); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: invalid entry %q: %w", raw, err)
		}
	}
	return nil
}
