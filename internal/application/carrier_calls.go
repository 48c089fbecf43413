package application

import (
	"context"
	"errors"
	"time"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
)

// carrierCaller bounds, times and records every carrier call.
type carrierCaller struct {
	carrier domain.CarrierGateway
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *logging.Logger
}

func (c carrierCaller) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	callCtx, cancel := domain.WithCarrierTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	elapsed := time.Since(start)

	c.metrics.RecordCarrierCall(c.carrier.Name(), operation, callOutcome(err), elapsed)
	c.logger.CarrierCall(ctx, c.carrier.Name(), operation, elapsed, err)
	return err
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsCarrierTimeout(err):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "error"
	}
}

// outcomeUnknown reports whether a side-effecting carrier call may have
// completed carrier-side despite the error.
func outcomeUnknown(err error) bool {
	return domain.IsCarrierTimeout(err) || errors.Is(err, context.Canceled)
}
