// Package di provides dependency injection factories for creating application components.
package di

import (
	"go.uber.org/zap"

	"stock_pipeline/internal/platform/externalapi/kis"
	infrahttp "stock_pipeline/internal/platform/http"
)

// NewMarket creates a fully configured KIS client with HTTP client.
// The client is shared by every caller in the process so its request spacing holds globally.
func NewMarket(cfg kis.Config, logger *zap.Logger) *kis.Client {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout, "")
	return kis.NewClient(cfg, httpClient, logger.Named("kis"))
}
