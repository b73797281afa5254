// Package proxy provides round-robin proxy rotation for provider HTTP clients.
package proxy

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// Rotator distributes outbound requests across a fixed proxy list in
// round-robin order. A Rotator with no proxies is valid and routes directly.
type Rotator struct {
	proxies []*url.URL
	next    atomic.Uint64
}

// NewRotator parses proxy addresses of the form "host:port",
// "user:pass@host:port", or full URLs. An empty list is allowed.
func NewRotator(addrs []string) (*Rotator, error) {
	r := &Rotator{}
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if !strings.Contains(addr, "://") {
			addr = "http://" + addr
		}
		u, err := url.Parse(addr)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", addr, err)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("parse proxy %q: missing host", addr)
		}
		r.proxies = append(r.proxies, u)
	}
	return r, nil
}

// Len reports the number of configured proxies.
func (r *Rotator) Len() int {
	if r == nil {
		return 0
	}
	return len(r.proxies)
}

// Next returns the proxy to use for the next request, or nil when none are
// configured.
func (r *Rotator) Next() *url.URL {
	if r == nil || len(r.proxies) == 0 {
		return nil
	}
	n := r.next.Add(1) - 1
	return r.proxies[n%uint64(len(r.proxies))]
}

// ProxyFunc adapts the rotator to http.Transport.Proxy.
func (r *Rotator) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		return r.Next(), nil
	}
}

// Transport builds an http.Transport with pooling defaults that routes
// through the rotator. Without proxies it behaves like a plain transport.
func (r *Rotator) Transport() *http.Transport {
	return &http.Transport{
		Proxy: r.ProxyFunc(),
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
