package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/cloudevents"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/resilience"
)

var (
	ErrRelayRunning = errors.New("outbox relay already running")
	ErrRelayStopped = errors.New("outbox relay not running")
)

// EventPublisher delivers a CloudEvent to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.Event) error
}

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// Retry bounds attempts within one poll. Nil publishes once; a failed
	// entry is retried on later polls until MaxAttempts.
	Retry *resilience.RetryConfig
}

func DefaultRelayConfig() *RelayConfig {
	return &RelayConfig{
		PollInterval: time.Second,
		BatchSize:    100,
		Retry:        resilience.DefaultRetryConfig(),
	}
}

// Relay polls the store and publishes pending entries in creation order.
type Relay struct {
	store     Store
	publisher EventPublisher
	logger    *logging.Logger
	metrics   *metrics.Metrics
	config    RelayConfig
	now       func() time.Time

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	published int
	failed    int
}

func NewRelay(store Store, publisher EventPublisher, logger *logging.Logger, m *metrics.Metrics, config *RelayConfig) *Relay {
	if config == nil {
		config = DefaultRelayConfig()
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent("outbox-relay"),
		metrics:   m,
		config:    *config,
		now:       time.Now,
	}
}

// Start runs the poll loop until Stop is called or ctx ends.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return ErrRelayRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)

	r.logger.Info("Outbox relay started", "interval", r.config.PollInterval, "batchSize", r.config.BatchSize)
	return nil
}

// Stop cancels the loop and waits for the current batch to finish.
func (r *Relay) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return ErrRelayStopped
	}

	cancel()
	<-done

	r.mu.Lock()
	r.cancel = nil
	published, failed := r.published, r.failed
	r.mu.Unlock()

	r.logger.Info("Outbox relay stopped", "published", published, "failed", failed)
	return nil
}

// Running reports whether the poll loop is active.
func (r *Relay) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

func (r *Relay) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Drain(ctx)
		}
	}
}

// Drain publishes one batch and returns how many entries were delivered.
// An entry that fails is recorded and skipped; later entries still go out.
func (r *Relay) Drain(ctx context.Context) int {
	entries, err := r.store.Pending(ctx, r.config.BatchSize)
	if err != nil {
		r.logger.WithError(err).Error("Failed to load pending outbox entries")
		return 0
	}
	r.metrics.SetOutboxPending(len(entries))

	delivered := 0
	for _, entry := range entries {
		if err := r.deliver(ctx, entry); err != nil {
			r.tally(false)
			r.logger.WithOrder(entry.OrderID).WithError(err).Error("Failed to relay event",
				"entryId", entry.ID,
				"eventType", entry.EventType,
				"attempt", entry.Attempts+1,
			)
			if err := r.store.RecordFailure(ctx, entry.ID, err.Error()); err != nil {
				r.logger.WithError(err).Error("Failed to record relay failure", "entryId", entry.ID)
			}
			continue
		}

		r.tally(true)
		delivered++
		if err := r.store.MarkPublished(ctx, entry.ID, r.now().UTC()); err != nil {
			r.logger.WithError(err).Error("Failed to mark entry published", "entryId", entry.ID)
		}
	}
	return delivered
}

func (r *Relay) deliver(ctx context.Context, entry *Entry) error {
	event, err := entry.Event()
	if err != nil {
		return err
	}
	send := func(ctx context.Context) error {
		return r.publisher.PublishEvent(ctx, entry.Topic, event)
	}
	if r.config.Retry == nil {
		return send(ctx)
	}
	return resilience.Retry(ctx, r.config.Retry, send)
}

func (r *Relay) tally(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ok {
		r.published++
		return
	}
	r.failed++
}
