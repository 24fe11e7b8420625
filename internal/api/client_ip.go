// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPResolver derives the client address recorded in the security log and
// used as the rate limit key.
//
// With no trusted proxies configured, X-Forwarded-For (first entry) and
// X-Real-IP are honored from any peer, matching a deployment behind a
// single ingress. Once proxies are configured the headers are honored only
// when the direct peer is one of them.
type IPResolver struct {
	trusted []netip.Prefix
}

// NewIPResolver parses proxies, each an IP or a CIDR.
func NewIPResolver(proxies []string) (*IPResolver, error) {
	r := &IPResolver{}
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			prefix, err := netip.ParsePrefix(p)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", p, err)
			}
			r.trusted = append(r.trusted, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(p)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", p, err)
		}
		r.trusted = append(r.trusted, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return r, nil
}

// ClientIP returns the client address of r.
func (ipr *IPResolver) ClientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !ipr.honorHeaders(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

// KeyFunc adapts ClientIP to httprate.KeyFunc.
func (ipr *IPResolver) KeyFunc(r *http.Request) (string, error) {
	return ipr.ClientIP(r), nil
}

func (ipr *IPResolver) honorHeaders(peer string) bool {
	if len(ipr.trusted) == 0 {
		return true
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range ipr.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
