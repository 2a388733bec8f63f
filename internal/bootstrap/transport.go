package bootstrap

import (
	"log/slog"
	"net/http"
	"time"

	"buscalisto/internal/client"
	"buscalisto/internal/client/proxy"
	"buscalisto/internal/client/transport"
	"buscalisto/internal/config"
)

// BuildTransport builds the decorated transport for calls to the
// marketplace API. workers overrides the profile's concurrency when > 0.
// retries is passed through as is; health checks are never retried.
func BuildTransport(profile *config.Config, log *slog.Logger, workers, retries int, observe transport.ObserveFunc) (transport.Transport, *http.Client, error) {
	log.Info("profile",
		"env", profile.Env,
		"api_host", profile.API.Host,
		"proxy_mode", profile.Proxy.Mode,
		"proxy_list_len", len(profile.Proxy.List),
		"transport_retries", retries,
	)

	if workers <= 0 {
		workers = profile.HTTP.Workers
	}

	if proxy.Mode(profile.Proxy.Mode) == proxy.ModeDisabled {
		log.Debug("proxy OFF")
	} else {
		log.Info("proxy ON", "mode", profile.Proxy.Mode)
	}

	return client.Build(client.Options{
		Timeout: time.Duration(profile.HTTP.TimeoutSeconds) * time.Second,
		Retries: retries,
		Workers: workers,
		Proxy: proxy.Config{
			Mode: profile.Proxy.Mode,
			List: profile.Proxy.List,
		},
		Observe: observe,
		Logger:  log,
	})
}
