// Package http builds the outbound client used for producer webhook deliveries.
package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// ClientConfig tunes the delivery transport. Deliveries fan out to many
// producer hosts, so the per-host pool stays small.
type ClientConfig struct {
	Timeout             time.Duration // whole attempt, including reading the body
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration
	KeepAlive           time.Duration
}

// WebhookClientConfig returns the delivery defaults around a per-attempt timeout
func WebhookClientConfig(timeout time.Duration) ClientConfig {
	return ClientConfig{
		Timeout:             timeout,
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 2,
		MaxConnsPerHost:     5,
		IdleConnTimeout:     30 * time.Second,
		DialTimeout:         5 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		KeepAlive:           30 * time.Second,
	}
}

// NewWebhookClient creates the delivery client. Redirects are returned to the
// caller as-is: a producer endpoint must answer at its registered URL.
func NewWebhookClient(cfg ClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.Timeout,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
