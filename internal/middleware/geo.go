package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/oschwald/geoip2-golang/v2"
	"go.uber.org/zap"
)

// CountryLookup maps an address to its ISO country code.
type CountryLookup interface {
	Country(ip netip.Addr) (string, error)
}

// GeoIPReader adapts a MaxMind city database to CountryLookup.
type GeoIPReader struct {
	db *geoip2.Reader
}

func OpenGeoIP(path string) (*GeoIPReader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIPReader{db: db}, nil
}

func (g *GeoIPReader) Country(ip netip.Addr) (string, error) {
	record, err := g.db.City(ip)
	if err != nil {
		return "", err
	}
	return record.Country.ISOCode, nil
}

func (g *GeoIPReader) Close() error { return g.db.Close() }

// GeoFence refuses requests from the banned countries. Addresses that do not
// parse or cannot be looked up are let through.
func GeoFence(lookup CountryLookup, banned []string, log *zap.Logger) func(http.Handler) http.Handler {
	deny := make(map[string]bool, len(banned))
	for _, code := range banned {
		deny[strings.ToUpper(strings.TrimSpace(code))] = true
	}

	return func(next http.Handler) http.Handler {
		if lookup == nil || len(deny) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIPFrom(r.Context())
			addr, err := netip.ParseAddr(ip)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			code, err := lookup.Country(addr)
			if err != nil {
				log.Debug("geoip lookup failed", zap.String("ip", ip), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if deny[code] {
				log.Warn("request from banned location", zap.String("ip", ip), zap.String("country", code))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
