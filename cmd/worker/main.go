package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/activities"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/bootstrap"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/workflows"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/temporal"
)

const serviceName = "shipping-worker"

func main() {
	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.WithError(err).Error("shipping-worker exited")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *logging.Logger) error {
	cfg := bootstrap.LoadConfig(serviceName)
	defer bootstrap.StartTracing(ctx, cfg, logger)()

	services, err := bootstrap.NewServices(ctx, cfg, logger, metrics.New(metrics.DefaultConfig(serviceName)))
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	defer func() {
		if err := services.Close(context.Background()); err != nil {
			logger.WithError(err).Warn("Closing services")
		}
	}()

	client, err := temporal.NewClient(ctx, cfg.Temporal, logger)
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer client.Close()

	w := client.NewWorker(temporal.DefaultWorkerOptions(temporal.TaskQueues.Shipping))
	w.RegisterWorkflow(workflows.ShipmentWorkflow)
	w.RegisterActivity(activities.NewShippingActivities(services.Shipments, logger))

	logger.Info("Polling task queue",
		"taskQueue", temporal.TaskQueues.Shipping,
		"namespace", cfg.Temporal.Namespace,
		"workflow", temporal.WorkflowNames.Shipment,
	)
	return w.Run(interruptOn(ctx))
}

// interruptOn adapts ctx cancellation to the channel Worker.Run waits on.
func interruptOn(ctx context.Context) <-chan interface{} {
	ch := make(chan interface{})
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}
