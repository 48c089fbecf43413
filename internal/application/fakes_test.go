package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/infrastructure/locking"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/infrastructure/memory"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
)

// fakeCarrier is a scriptable domain.CarrierGateway that counts calls.
type fakeCarrier struct {
	mu sync.Mutex

	quotes   []domain.RateQuote
	quoteErr error

	createErr   error
	createBlock bool
	createDelay time.Duration

	cancelOutcome *domain.CancelOutcome
	cancelErr     error

	tracking    *domain.CarrierTracking
	trackingErr error

	labelURL string
	labelErr error

	quoteCalls  int
	createCalls int
	cancelCalls int
	lastRateReq domain.RateRequest
	lastShipReq domain.ShipmentRequest
	seq         int
}

func newFakeCarrier() *fakeCarrier {
	return &fakeCarrier{
		quotes: []domain.RateQuote{
			{ServiceLevelCode: "ECO", ServiceLevelName: "Economy", TotalPrice: 95.5, DeliveryEstimate: "3-5 days"},
			{ServiceLevelCode: "EXPRESS", ServiceLevelName: "Express", TotalPrice: 180, DeliveryEstimate: "1-2 days"},
		},
		cancelOutcome: &domain.CancelOutcome{Cancelled: true},
	}
}

func (f *fakeCarrier) Name() string { return "Ship Logic" }

func (f *fakeCarrier) QuoteRates(_ context.Context, req domain.RateRequest) ([]domain.RateQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	f.lastRateReq = req
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return append([]domain.RateQuote(nil), f.quotes...), nil
}

func (f *fakeCarrier) CreateShipment(ctx context.Context, req domain.ShipmentRequest) (*domain.CarrierShipment, error) {
	f.mu.Lock()
	f.createCalls++
	f.lastShipReq = req
	f.seq++
	seq := f.seq
	block, delay, err := f.createBlock, f.createDelay, f.createErr
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return &domain.CarrierShipment{
		CarrierShipmentID: fmt.Sprintf("sl-%d", seq),
		TrackingReference: fmt.Sprintf("TRK%04d", seq),
	}, nil
}

func (f *fakeCarrier) CancelShipment(_ context.Context, _ string) (*domain.CancelOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return f.cancelOutcome, nil
}

func (f *fakeCarrier) GetTracking(_ context.Context, _ string) (*domain.CarrierTracking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tracking, f.trackingErr
}

func (f *fakeCarrier) GetLabelURL(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.labelURL, f.labelErr
}

func (f *fakeCarrier) counts() (quotes, creates, cancels int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quoteCalls, f.createCalls, f.cancelCalls
}

// scriptedRepo wraps the memory repository and can fail updates.
type scriptedRepo struct {
	*memory.OrderRepository
	mu            sync.Mutex
	updateErr     error
	conflictsLeft int
	onConflict    func()
}

func (r *scriptedRepo) Update(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	err := r.updateErr
	conflict := r.conflictsLeft > 0
	if conflict {
		r.conflictsLeft--
	}
	hook := r.onConflict
	r.mu.Unlock()

	if err != nil {
		return err
	}
	if conflict {
		if hook != nil {
			hook()
		}
		return fmt.Errorf("simulated: %w", domain.ErrVersionConflict)
	}
	return r.OrderRepository.Update(ctx, order)
}

type harness struct {
	cfg          domain.ShippingConfig
	repo         *scriptedRepo
	carrier      *fakeCarrier
	rates        *RateResolver
	orchestrator *ShipmentOrchestrator
	projector    *TrackingProjector
}

func newHarness(t *testing.T, tune ...func(cfg *domain.ShippingConfig)) *harness {
	t.Helper()

	cfg := domain.DefaultShippingConfig()
	cfg.CarrierTimeout = 200 * time.Millisecond
	cfg.PersistTimeout = time.Second
	cfg.LockWait = 2 * time.Second
	for _, fn := range tune {
		fn(&cfg)
	}

	repo := &scriptedRepo{OrderRepository: memory.NewOrderRepository()}
	carrier := newFakeCarrier()
	locker := locking.NewKeyedMutex()
	estimator := domain.NewParcelEstimator(cfg)
	logger := logging.NewNop()

	rates := NewRateResolver(repo, carrier, estimator, cfg, nil, logger)
	return &harness{
		cfg:          cfg,
		repo:         repo,
		carrier:      carrier,
		rates:        rates,
		orchestrator: NewShipmentOrchestrator(repo, carrier, rates, estimator, locker, cfg, nil, logger),
		projector:    NewTrackingProjector(repo, carrier, locker, cfg, nil, logger),
	}
}

func testAddress() domain.Address {
	return domain.Address{
		RecipientName: "Thandi Nkosi",
		Phone:         "+27821234567",
		AddressLine1:  "12 Long Street",
		Suburb:        "City Centre",
		City:          "Cape Town",
		Province:      "Western Cape",
		PostalCode:    "8001",
		Country:       "ZA",
	}
}

func newTestOrder(id string, total float64, quantities ...int) *domain.Order {
	if len(quantities) == 0 {
		quantities = []int{3}
	}
	order := &domain.Order{
		ID:              id,
		CustomerID:      "cust-1",
		Status:          domain.OrderStatusPending,
		ShippingAddress: testAddress(),
		Total:           total,
		CreatedAt:       time.Now().UTC(),
	}
	for i, q := range quantities {
		order.Items = append(order.Items, domain.LineItem{SKU: fmt.Sprintf("TEE-%d", i), Quantity: q, UnitPrice: 150})
	}
	return order
}

func withStoredRate(order *domain.Order, code, name string, price float64) *domain.Order {
	order.ServiceLevelCode = code
	order.ServiceLevelName = name
	order.ShippingCost = &price
	return order
}

func (h *harness) seed(t *testing.T, order *domain.Order) {
	t.Helper()
	require.NoError(t, h.repo.Insert(context.Background(), order))
}

func (h *harness) load(t *testing.T, id string) *domain.Order {
	t.Helper()
	order, err := h.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return order
}
