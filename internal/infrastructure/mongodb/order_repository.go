package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/cloudevents"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/kafka"
	sharedmongo "github.com/KyleYagher/Jits-Apparel-sub000/pkg/mongodb"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/outbox"
	outboxMongo "github.com/KyleYagher/Jits-Apparel-sub000/pkg/outbox/mongodb"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/tracing"
)

const ordersCollection = "orders"

// OrderRepository persists orders with optimistic versioning. Domain events
// are written to the outbox in the same transaction as the order change.
type OrderRepository struct {
	client       *sharedmongo.Client
	collection   *mongo.Collection
	outbox       *outboxMongo.Store
	eventFactory *cloudevents.EventFactory
	tracer       trace.Tracer
}

// NewOrderRepository creates the repository. Call EnsureIndexes once at startup.
func NewOrderRepository(client *sharedmongo.Client, eventFactory *cloudevents.EventFactory) *OrderRepository {
	db := client.Database()
	return &OrderRepository{
		client:       client,
		collection:   db.Collection(ordersCollection),
		outbox:       outboxMongo.NewStore(db),
		eventFactory: eventFactory,
		tracer:       otel.Tracer("shipping/mongodb"),
	}
}

// Outbox exposes the outbox store for the relay.
func (r *OrderRepository) Outbox() *outboxMongo.Store {
	return r.outbox
}

// EnsureIndexes creates lookup indexes for webhook matching plus the outbox indexes.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "carrierShipmentId", Value: 1}},
			Options: options.Index().SetName("idx_carrierShipmentId").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "trackingNumber", Value: 1}},
			Options: options.Index().SetName("idx_trackingNumber").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_customerId_createdAt"),
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return r.outbox.EnsureIndexes(ctx)
}

// Insert stores a new order.
func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order %s: %w", order.ID, err)
	}
	return nil
}

// FindByID loads an order by id
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return r.findOne(ctx, "find-by-id", bson.M{"_id": orderID})
}

// FindByCarrierShipmentID loads the order holding a carrier shipment
func (r *OrderRepository) FindByCarrierShipmentID(ctx context.Context, carrierShipmentID string) (*domain.Order, error) {
	if carrierShipmentID == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, "find-by-carrier-shipment", bson.M{"carrierShipmentId": carrierShipmentID})
}

// FindByTrackingNumber loads the order holding a tracking number
func (r *OrderRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Order, error) {
	if trackingNumber == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, "find-by-tracking-number", bson.M{"trackingNumber": trackingNumber})
}

func (r *OrderRepository) findOne(ctx context.Context, op string, filter bson.M) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "mongodb.orders."+op,
		trace.WithAttributes(tracing.DatabaseSpanAttributes("mongodb", r.collection.Database().Name(), "find", ordersCollection)...))
	defer span.End()

	var order domain.Order
	err := r.collection.FindOne(ctx, filter).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		tracing.RecordResult(span, err)
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// Update writes the order's shipping fields and status if the stored version
// still matches, then bumps the version. Pending domain events go to the outbox
// in the same transaction.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "mongodb.orders.update",
		trace.WithAttributes(tracing.DatabaseSpanAttributes("mongodb", r.collection.Database().Name(), "update", ordersCollection)...))
	defer span.End()

	err := r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		filter := bson.M{"_id": order.ID, "version": order.Version}
		update := bson.M{
			"$set": bson.M{
				"status":            order.Status,
				"serviceLevelCode":  order.ServiceLevelCode,
				"serviceLevelName":  order.ServiceLevelName,
				"freeShipping":      order.FreeShipping,
				"shippingCost":      order.ShippingCost,
				"trackingNumber":    order.TrackingNumber,
				"carrierShipmentId": order.CarrierShipmentID,
				"carrierName":       order.CarrierName,
				"updatedAt":         order.UpdatedAt,
			},
			"$inc": bson.M{"version": 1},
		}

		result, err := r.collection.UpdateOne(sessCtx, filter, update)
		if err != nil {
			return fmt.Errorf("failed to update order %s: %w", order.ID, err)
		}
		if result.MatchedCount == 0 {
			return r.missOrConflict(sessCtx, order)
		}

		entries, err := r.outboxEntries(sessCtx, order.GetDomainEvents())
		if err != nil {
			return err
		}
		return r.outbox.Append(sessCtx, entries)
	})
	if err != nil {
		tracing.RecordResult(span, err)
		return err
	}

	order.Version++
	order.ClearDomainEvents()
	return nil
}

func (r *OrderRepository) missOrConflict(ctx context.Context, order *domain.Order) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": order.ID})
	if err != nil {
		return fmt.Errorf("failed to check order %s: %w", order.ID, err)
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return fmt.Errorf("order %s at version %d: %w", order.ID, order.Version, domain.ErrVersionConflict)
}

func (r *OrderRepository) outboxEntries(ctx context.Context, events []domain.DomainEvent) ([]*outbox.Entry, error) {
	out := make([]*outbox.Entry, 0, len(events))
	for _, e := range events {
		ce, err := r.eventFactory.CreateOrderEvent(ctx, e.EventType(), e.AggregateID(), e)
		if err != nil {
			return nil, err
		}
		ce.Time = e.OccurredAt()

		entry, err := outbox.NewEntry(e.AggregateID(), kafka.Topics.ShippingEvents, ce)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}
