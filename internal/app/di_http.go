package app

import (
	"fmt"

	cryptoHTTP "github.com/allisson/pandorica/internal/crypto/http"
	filesHTTP "github.com/allisson/pandorica/internal/files/http"
	"github.com/allisson/pandorica/internal/http"
)

type httpComponents struct {
	handlers      lazy[http.Handlers]
	httpServer    lazy[*http.Server]
	metricsServer lazy[*http.MetricsServer]
}

// Handlers returns the API handlers.
func (c *Container) Handlers() (http.Handlers, error) {
	return c.handlers.get(func() (http.Handlers, error) {
		logger := c.Logger()

		hasher, err := c.PasswordHasher()
		if err != nil {
			return http.Handlers{}, err
		}
		deriver, err := c.KeyDeriver()
		if err != nil {
			return http.Handlers{}, err
		}
		envelope, err := c.EnvelopeUseCase()
		if err != nil {
			return http.Handlers{}, err
		}
		keyManagement, err := c.KeyManagementUseCase()
		if err != nil {
			return http.Handlers{}, err
		}
		fileUseCase, err := c.FileUseCase()
		if err != nil {
			return http.Handlers{}, err
		}

		return http.Handlers{
			Value:    cryptoHTTP.NewValueHandler(envelope, logger),
			Password: cryptoHTTP.NewPasswordHandler(hasher, logger),
			Key:      cryptoHTTP.NewKeyHandler(keyManagement, deriver, logger),
			File:     filesHTTP.NewFileHandler(fileUseCase, logger),
		}, nil
	})
}

// HTTPServer returns the API server with its router configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	return c.httpServer.get(func() (*http.Server, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for http server: %w", err)
		}
		handlers, err := c.Handlers()
		if err != nil {
			return nil, fmt.Errorf("failed to get handlers for http server: %w", err)
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}

		server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
		server.SetupRouter(c.config, handlers, provider)
		c.onShutdown("http server", server.Shutdown)
		return server, nil
	})
}

// MetricsServer returns the Prometheus scrape server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	return c.metricsServer.get(func() (*http.MetricsServer, error) {
		provider, err := c.MetricsProvider()
		if err != nil || provider == nil {
			return nil, err
		}

		server := http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
		c.onShutdown("metrics server", server.Shutdown)
		return server, nil
	})
}
