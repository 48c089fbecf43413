package bootstrap

import (
	"context"
	"time"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/tracing"
)

// StartTracing installs the tracer provider and returns its flush function.
// A failed exporter is logged and the process keeps running untraced.
func StartTracing(ctx context.Context, cfg *Config, logger *logging.Logger) func() {
	provider, err := tracing.Initialize(ctx, cfg.Tracing)
	if err != nil {
		logger.WithError(err).Error("Tracing disabled, exporter setup failed")
		return func() {}
	}
	if cfg.Tracing.Enabled {
		logger.Info("Exporting traces", "endpoint", cfg.Tracing.OTLPEndpoint, "sampleRate", cfg.Tracing.SampleRate)
	}
	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(flushCtx); err != nil {
			logger.WithError(err).Warn("Trace flush incomplete")
		}
	}
}
