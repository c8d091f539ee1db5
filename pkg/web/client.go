package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	DefaultTimeout = 20 * time.Second
	UserAgent      = "Mozilla/5.0 (X11; Linux x86_64; rv:140.0) Gecko/20100101 Firefox/140.0"
)

const maxRedirects = 10

var ErrTooManyRedirects = errors.New("too many redirects")

type Options struct {
	Timeout time.Duration
	Proxy   string
}

var (
	sharedOnce   sync.Once
	sharedClient *http.Client
	sharedErr    error
)

// NewClient builds a client with a fixed per-request timeout. At most 10
// redirects are followed.
func NewClient(opts Options) (*http.Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if err := configureProxy(opts.Proxy, transport); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}, nil
}

// Shared returns the process-wide client. It is built on the first call;
// options passed to later calls are ignored. The client is never closed.
func Shared(opts Options) (*http.Client, error) {
	sharedOnce.Do(func() {
		sharedClient, sharedErr = NewClient(opts)
	})
	return sharedClient, sharedErr
}

// NewRequest prepares a GET with the tool's User-Agent.
func NewRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
