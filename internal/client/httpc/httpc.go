package httpc

import (
	"net"
	"net/http"
	"net/url"
	"time"
)

type Options struct {
	Timeout        time.Duration
	HeaderTimeout  time.Duration
	MaxIdlePerHost int
	Proxy          func(*http.Request) (*url.URL, error)
}

func New(timeout time.Duration) *http.Client {
	return NewWithOptions(Options{Timeout: timeout})
}

// NewWithOptions builds the client shared by every upstream call. The
// marketplace API is stateless, so there is no cookie jar.
func NewWithOptions(o Options) *http.Client {
	if o.HeaderTimeout <= 0 {
		o.HeaderTimeout = 10 * time.Second
	}
	if o.MaxIdlePerHost <= 0 {
		o.MaxIdlePerHost = 20
	}

	tr := &http.Transport{
		Proxy: o.Proxy,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: o.HeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: o.MaxIdlePerHost,
		IdleConnTimeout:     90 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   o.Timeout,
	}
}
