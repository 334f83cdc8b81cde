// Package clientip works out which address a request came from.
package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"giveaway/internal/utils"
)

const (
	CookieName = "giveaway_client"
	cookieTTL  = 365 * 24 * time.Hour
)

type Resolver struct {
	// TrustedProxies lists the peers whose X-Forwarded-For and X-Real-IP
	// headers are believed. Headers from any other peer are ignored.
	TrustedProxies []netip.Prefix
}

func New(trustedProxies ...netip.Prefix) *Resolver {
	return &Resolver{TrustedProxies: trustedProxies}
}

// Resolve returns the client's IP address. When none can be read from the
// request it returns a stable pseudo-identifier instead and reports
// fallback=true; the caller should then call Remember so the same client
// keeps the same identifier.
func (res *Resolver) Resolve(r *http.Request) (id string, fallback bool) {
	remote := remoteIP(r.RemoteAddr)
	if remote != "" && res.trusted(remote) {
		if ip := res.forwardedFor(r.Header.Values("X-Forwarded-For")); ip != "" {
			return ip, false
		}
		if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
			return ip, false
		}
	}
	if remote != "" {
		return remote, false
	}

	if c, err := r.Cookie(CookieName); err == nil && strings.HasPrefix(c.Value, "anon-") {
		return c.Value, true
	}
	return utils.FallbackClientID(), true
}

// forwardedFor walks the hops right to left and returns the first one that
// is not a trusted proxy. Hops left of that one were written by the client
// and are never read.
func (res *Resolver) forwardedFor(values []string) string {
	hops := strings.Split(strings.Join(values, ","), ",")
	last := ""
	for i := len(hops) - 1; i >= 0; i-- {
		ip := parseIP(hops[i])
		if ip == "" {
			return ""
		}
		if !res.trusted(ip) {
			return ip
		}
		last = ip
	}
	return last
}

func (res *Resolver) trusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range res.TrustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Remember stores a fallback identifier on the client.
func Remember(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(cookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func remoteIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return parseIP(host)
	}
	return parseIP(strings.Trim(addr, "[]"))
}

// parseIP returns the canonical form of v, or "" if v is not an address.
func parseIP(v string) string {
	ip := net.ParseIP(strings.TrimSpace(v))
	if ip == nil {
		return ""
	}
	return ip.String()
}
