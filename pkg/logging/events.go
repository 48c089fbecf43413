package logging

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"
)

// Audit records who changed an order's shipment.
func (l *Logger) Audit(ctx context.Context, action, resource, resourceID, userID string, details map[string]any) {
	args := []any{"auditAction", action, "resource", resource, "resourceId", resourceID, "actor", userID}
	for k, v := range details {
		args = append(args, k, v)
	}
	l.InfoContext(ctx, "Audit event", args...)
}

// CarrierCall logs one carrier API round trip: debug on success, warn on failure.
func (l *Logger) CarrierCall(ctx context.Context, carrier, operation string, took time.Duration, err error) {
	level, args := slog.LevelDebug, []any{
		"carrier", carrier,
		"carrierOperation", operation,
		"durationMs", took.Milliseconds(),
		"success", err == nil,
	}
	if err != nil {
		level = slog.LevelWarn
		args = append(args, "error", err.Error())
	}
	l.Log(ctx, level, "Carrier call", args...)
}

// StateDivergence flags a shipment that exists at the carrier but not on the
// order record, or the reverse. It always needs manual reconciliation.
func (l *Logger) StateDivergence(ctx context.Context, orderID, carrierShipmentID, trackingNumber string, err error) {
	args := []any{
		"orderId", orderID,
		"carrierShipmentId", carrierShipmentID,
		"trackingNumber", trackingNumber,
		"alert", true,
	}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.ErrorContext(ctx, "Carrier state diverged from order record", args...)
}

// HTTPRequest logs an access line; 4xx at warn and 5xx at error.
func (l *Logger) HTTPRequest(ctx context.Context, method, path string, status int, took time.Duration, clientIP, userAgent string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	l.Log(ctx, level, "HTTP request",
		"method", method,
		"path", path,
		"status", status,
		"durationMs", took.Milliseconds(),
		"clientIP", clientIP,
		"userAgent", userAgent,
	)
}

func (l *Logger) KafkaPublish(ctx context.Context, topic, eventType string, success bool, took time.Duration) {
	level := slog.LevelDebug
	if !success {
		level = slog.LevelError
	}
	l.Log(ctx, level, "Kafka publish",
		"topic", topic,
		"eventType", eventType,
		"success", success,
		"durationMs", took.Milliseconds(),
	)
}

// Panic logs a recovered panic with the current goroutine's stack.
func (l *Logger) Panic(ctx context.Context, recovered any) {
	l.ErrorContext(ctx, "Panic recovered", "panic", recovered, "stack", string(debug.Stack()))
}
