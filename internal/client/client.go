package client

import (
	"log/slog"
	"net/http"
	"time"

	"buscalisto/internal/client/httpc"
	"buscalisto/internal/client/proxy"
	"buscalisto/internal/client/transport"
)

type Transport = transport.Transport

type Options struct {
	Timeout time.Duration
	Retries int
	Workers int

	BaseDelay time.Duration
	MaxDelay  time.Duration

	Proxy   proxy.Config
	Observe transport.ObserveFunc

	Logger *slog.Logger
}

// Build returns the decorated transport used for every call to the
// marketplace API, plus the plain client underneath it.
func Build(opts Options) (Transport, *http.Client, error) {
	proxyFunc, err := proxy.FromConfig(opts.Proxy, opts.Logger)
	if err != nil {
		return nil, nil, err
	}

	hc := httpc.NewWithOptions(httpc.Options{Timeout: opts.Timeout, Proxy: proxyFunc})

	tr, err := transport.Build(transport.Options{
		HTTPClient:  hc,
		Retries:     opts.Retries,
		Concurrency: opts.Workers,
		BaseDelay:   opts.BaseDelay,
		MaxDelay:    opts.MaxDelay,
		Observe:     opts.Observe,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return tr, hc, nil
}
