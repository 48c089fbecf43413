// Package middleware is the gin middleware chain shared by the HTTP API:
// request ids, tracing, access logs, metrics, panic recovery and the JSON
// error envelope.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
)

type Config struct {
	Logger         *logging.Logger
	ServiceName    string
	Metrics        *metrics.Metrics
	EnableTracing  bool
	ErrorMapper    ErrorMapper
	TrustedProxies []string
	// QuietPaths are neither traced nor access-logged.
	QuietPaths []string
}

func DefaultConfig(serviceName string, logger *logging.Logger) *Config {
	return &Config{
		Logger:      logger,
		ServiceName: serviceName,
		QuietPaths:  []string{"/health", "/ready", "/metrics"},
	}
}

// Setup installs the chain in order. Recovery runs outermost so a panic in
// any later middleware still produces the error envelope.
func Setup(router *gin.Engine, config *Config) {
	InitValidator()
	if len(config.TrustedProxies) > 0 {
		_ = router.SetTrustedProxies(config.TrustedProxies)
	}

	chain := []gin.HandlerFunc{
		Recovery(config.Logger),
		RequestID(),
		CorrelationID(),
		UserID(),
	}
	if config.EnableTracing {
		tracingConfig := DefaultTracingConfig(config.ServiceName)
		tracingConfig.SkipPaths = config.QuietPaths
		chain = append(chain, Tracing(tracingConfig))
	}
	chain = append(chain, AccessLog(config.Logger, config.QuietPaths...))
	if config.Metrics != nil {
		chain = append(chain, Metrics(config.Metrics))
	}
	chain = append(chain, ErrorHandler(config.Logger, config.ErrorMapper))
	router.Use(chain...)

	router.HandleMethodNotAllowed = true
	router.NoRoute(NoRoute())
	router.NoMethod(NoMethod())
}
