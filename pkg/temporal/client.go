package temporal

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
)

// Config holds Temporal client configuration
type Config struct {
	HostPort  string
	Namespace string
	Identity  string
}

// DefaultConfig returns a Config pointing at a local Temporal frontend
func DefaultConfig() *Config {
	return &Config{
		HostPort:  "localhost:7233",
		Namespace: "default",
		Identity:  "shipping-worker",
	}
}

// TaskQueues contains the shipping task queue names
var TaskQueues = struct {
	Shipping string
}{
	Shipping: "shipping-queue",
}

// WorkflowNames contains the shipping workflow names
var WorkflowNames = struct {
	Shipment string
}{
	Shipment: "ShipmentWorkflow",
}

// Client wraps the Temporal client
type Client struct {
	client client.Client
	config *Config
}

// NewClient dials the Temporal frontend. SDK logs are routed through logger.
func NewClient(ctx context.Context, config *Config, logger *logging.Logger) (*Client, error) {
	options := client.Options{
		HostPort:  config.HostPort,
		Namespace: config.Namespace,
		Identity:  config.Identity,
	}
	if logger != nil {
		options.Logger = temporallog.NewStructuredLogger(logger.WithComponent("temporal").Logger)
	}

	c, err := client.DialContext(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	return &Client{
		client: c,
		config: config,
	}, nil
}

// Close closes the client connection
func (c *Client) Close() {
	c.client.Close()
}

// WorkerOptions configures a worker
type WorkerOptions struct {
	TaskQueue                          string
	MaxConcurrentActivityExecutionSize int
	MaxConcurrentWorkflowTaskPollers   int
	WorkerStopTimeout                  time.Duration
}

// DefaultWorkerOptions returns worker options for a task queue
func DefaultWorkerOptions(taskQueue string) WorkerOptions {
	return WorkerOptions{
		TaskQueue:                          taskQueue,
		MaxConcurrentActivityExecutionSize: 20,
		MaxConcurrentWorkflowTaskPollers:   2,
		WorkerStopTimeout:                  30 * time.Second,
	}
}

// NewWorker creates a worker bound to opts.TaskQueue
func (c *Client) NewWorker(opts WorkerOptions) worker.Worker {
	return worker.New(c.client, opts.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: opts.MaxConcurrentActivityExecutionSize,
		MaxConcurrentWorkflowTaskPollers:   opts.MaxConcurrentWorkflowTaskPollers,
		WorkerStopTimeout:                  opts.WorkerStopTimeout,
	})
}
