package server

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

// ipRateLimiter keeps one token bucket per client IP. Idle buckets expire.
type ipRateLimiter struct {
	perSecond rate.Limit
	burst     int
	buckets   *ttlcache.Cache[string, *rate.Limiter]
}

func newIPRateLimiter(perSecond float64, burst int) *ipRateLimiter {
	buckets := ttlcache.New(
		ttlcache.WithTTL[string, *rate.Limiter](limiterIdleTTL),
	)
	go buckets.Start()

	return &ipRateLimiter{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		buckets:   buckets,
	}
}

func (l *ipRateLimiter) Allow(ip string) bool {
	item, _ := l.buckets.GetOrSet(ip, rate.NewLimiter(l.perSecond, l.burst))
	return item.Value().Allow()
}

func (l *ipRateLimiter) Close() {
	l.buckets.Stop()
}

func (s *Server) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || r.Method == http.MethodOptions {
			next(w, r)
			return
		}

		ip := clientIP(r, s.trustedProxies)
		if ip == "" {
			ip = "unknown"
		}
		if !s.limiter.Allow(ip) {
			s.metrics.rateLimited.Inc()
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, "rate_limited", "too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientIP is the peer address, unless the peer is a trusted proxy. Then it is
// the rightmost X-Forwarded-For entry that is not itself a trusted proxy, since
// everything left of that was written by the client.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		peer = host
	}
	if !isTrusted(peer, trusted) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !isTrusted(hop, trusted) {
			return hop
		}
	}
	return peer
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
