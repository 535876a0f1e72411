// Package di provides dependency injection factories for creating application components.
package di

import (
	"cattle_backend/internal/platform/externalapi/mercadoagro"
	infrahttp "cattle_backend/internal/platform/http"
)

// NewScraper creates a fully configured market scraper with HTTP client.
func NewScraper() (*mercadoagro.Scraper, error) {
	cfg, err := mercadoagro.LoadConfig()
	if err != nil {
		return nil, err
	}
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return mercadoagro.NewScraper(cfg, httpClient), nil
}
