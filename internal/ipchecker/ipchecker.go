// Package ipchecker restricts handlers to clients from a trusted subnet.
package ipchecker

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/bookmarks/internal/logger"
	"github.com/patric-chuzhbe/bookmarks/internal/models"
)

// IPChecker matches client addresses against an optional trusted subnet.
// Without a subnet nobody is trusted.
type IPChecker struct {
	trustedSubnet     *net.IPNet
	honorProxyHeaders bool
}

// InitOption configures an IPChecker.
type InitOption func(*IPChecker)

// WithProxyHeaders makes the checker take the client address from X-Real-IP
// and X-Forwarded-For. Enable it only behind a reverse proxy that overwrites
// both headers, since any client can send them.
func WithProxyHeaders(value bool) InitOption {
	return func(checker *IPChecker) {
		checker.honorProxyHeaders = value
	}
}

// New parses trustedSubnet in CIDR notation ("10.0.0.0/8").
// An empty string yields a checker that rejects every client.
func New(trustedSubnet string, options ...InitOption) (*IPChecker, error) {
	checker := &IPChecker{}
	for _, option := range options {
		option(checker)
	}

	if trustedSubnet == "" {
		return checker, nil
	}

	_, subnet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}
	checker.trustedSubnet = subnet

	return checker, nil
}

// Check reports whether clientIP is inside the trusted subnet.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// GetClientIP resolves the client address from the TCP peer. With proxy
// headers enabled, X-Real-IP and then the first X-Forwarded-For entry take
// precedence over RemoteAddr.
func (checker *IPChecker) GetClientIP(request *http.Request) (net.IP, error) {
	if checker.honorProxyHeaders {
		if ip := net.ParseIP(strings.TrimSpace(request.Header.Get("X-Real-IP"))); ip != nil {
			return ip, nil
		}

		if forwardedFor := request.Header.Get("X-Forwarded-For"); forwardedFor != "" {
			first, _, _ := strings.Cut(forwardedFor, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip, nil
			}
		}
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/GetClientIP(): error while `net.SplitHostPort()` calling: %w", err)
	}

	return net.ParseIP(host), nil
}

// TrustedOnly is an HTTP middleware answering 403 to clients outside the trusted subnet.
func (checker *IPChecker) TrustedOnly(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		clientIP, err := checker.GetClientIP(request)
		if err != nil {
			logger.Log.Debugln("Error calling the `checker.GetClientIP()`: ", zap.Error(err))
		}

		if err != nil || !checker.Check(clientIP) {
			response.Header().Set("Content-Type", "application/json")
			response.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(response).Encode(models.ErrorResponse{Message: "forbidden"})
			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
