package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"tagfeed/pkg/config"
)

// IPExtractor resolves the client IP for an HTTP request. Implementations
// choose between the raw connection address and proxy forwarding headers.
type IPExtractor interface {
	ExtractIP(r *http.Request) (string, error)
}

// RemoteAddrExtractor uses the TCP connection address. It cannot be spoofed
// by the client and is the default when no trusted proxy sits in front of
// the service.
type RemoteAddrExtractor struct{}

func (e *RemoteAddrExtractor) ExtractIP(r *http.Request) (string, error) {
	return extractIPFromAddr(r.RemoteAddr)
}

// TrustedProxyConfig lists the proxies whose forwarding headers are honored.
type TrustedProxyConfig struct {
	// Enabled gates all header-based extraction.
	Enabled bool

	// AllowedCIDRs holds trusted proxy ranges. Single IPs are stored as
	// /32 or /128 prefixes.
	AllowedCIDRs []netip.Prefix
}

// IsTrusted reports whether remoteAddr belongs to a trusted proxy range.
func (c *TrustedProxyConfig) IsTrusted(remoteAddr string) bool {
	host, err := extractIPFromAddr(remoteAddr)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}

	for _, prefix := range c.AllowedCIDRs {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// LoadTrustedProxyConfig reads RATE_LIMIT_TRUST_PROXY and
// RATE_LIMIT_TRUSTED_PROXIES. Enabling trust without naming any proxy is a
// configuration error; the service fails closed at startup rather than
// silently honoring spoofable headers.
func LoadTrustedProxyConfig() (*TrustedProxyConfig, error) {
	cfg := &TrustedProxyConfig{
		Enabled:      config.GetEnvBool("RATE_LIMIT_TRUST_PROXY", false),
		AllowedCIDRs: []netip.Prefix{},
	}
	if !cfg.Enabled {
		return cfg, nil
	}

	entries := config.GetEnvStringList("RATE_LIMIT_TRUSTED_PROXIES", nil)
	if len(entries) == 0 {
		return nil, fmt.Errorf("RATE_LIMIT_TRUST_PROXY is enabled but RATE_LIMIT_TRUSTED_PROXIES is empty")
	}

	for _, entry := range entries {
		prefix, err := parseProxyEntry(entry)
		if err != nil {
			return nil, err
		}
		cfg.AllowedCIDRs = append(cfg.AllowedCIDRs, prefix)
	}
	return cfg, nil
}

// parseProxyEntry accepts either CIDR notation or a single IP, widening the
// latter to a host prefix.
func parseProxyEntry(entry string) (netip.Prefix, error) {
	if prefix, err := netip.ParsePrefix(entry); err == nil {
		return prefix, nil
	}

	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid IP or CIDR format '%s': must be valid IP address or CIDR notation (e.g., '192.168.1.1' or '10.0.0.0/8')", entry)
	}
	bits := 32
	if addr.Is6() {
		bits = 128
	}
	return netip.PrefixFrom(addr, bits), nil
}

// TrustedProxyExtractor honors X-Forwarded-For and X-Real-IP, but only when
// the connection itself comes from a trusted proxy. Untrusted sources fall
// back to RemoteAddr so clients cannot rotate their apparent IP with a
// forged header.
type TrustedProxyExtractor struct {
	config TrustedProxyConfig
}

func NewTrustedProxyExtractor(config TrustedProxyConfig) *TrustedProxyExtractor {
	return &TrustedProxyExtractor{config: config}
}

// ExtractIP prefers X-Forwarded-For, then X-Real-IP, then RemoteAddr.
// Headers are consulted only for connections from trusted proxies.
func (e *TrustedProxyExtractor) ExtractIP(r *http.Request) (string, error) {
	if !e.config.Enabled {
		return extractIPFromAddr(r.RemoteAddr)
	}

	if !e.config.IsTrusted(r.RemoteAddr) {
		e.warnForgedHeaders(r)
		return extractIPFromAddr(r.RemoteAddr)
	}

	if ip := parseFirstIP(r.Header.Get("X-Forwarded-For")); ip != "" {
		return ip, nil
	}
	if ip := net.ParseIP(r.Header.Get("X-Real-IP")); ip != nil {
		return ip.String(), nil
	}
	return extractIPFromAddr(r.RemoteAddr)
}

// warnForgedHeaders logs forwarding headers arriving over untrusted
// connections. They are a spoofing attempt or a proxy missing from the
// trust list; either deserves a log line.
func (e *TrustedProxyExtractor) warnForgedHeaders(r *http.Request) {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		slog.Warn("untrusted proxy attempting to set X-Forwarded-For",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("x_forwarded_for", xff),
		)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		slog.Warn("untrusted proxy attempting to set X-Real-IP",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("x_real_ip", xri),
		)
	}
}

// extractIPFromAddr strips the port from a "host:port" address, accepting
// bare IPs as well.
func extractIPFromAddr(addr string) (string, error) {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host, nil
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String(), nil
	}
	return "", fmt.Errorf("invalid address format: %s", addr)
}

// parseFirstIP returns the first entry of a comma-separated list, as found
// in X-Forwarded-For, or "" when that entry is not a valid IP.
func parseFirstIP(s string) string {
	first, _, _ := strings.Cut(s, ",")
	if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
		return ip.String()
	}
	return ""
}
