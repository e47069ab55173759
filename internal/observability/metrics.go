package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/gks77/user-account-service"

var (
	metricsOnce        sync.Once
	repoOperations     metric.Int64Counter
	sessionEvents      metric.Int64Counter
	sessionsRevoked    metric.Int64Counter
	addressTransitions metric.Int64Counter
	accountEvents      metric.Int64Counter
)

func instruments() {
	metricsOnce.Do(func() {
		meter := otel.Meter(meterName)
		repoOperations, _ = meter.Int64Counter("repository_operations_total",
			metric.WithDescription("Repository operations by entity, operation and outcome"))
		sessionEvents, _ = meter.Int64Counter("session_management_events_total",
			metric.WithDescription("Session lifecycle events by operation and outcome"))
		sessionsRevoked, _ = meter.Int64Counter("sessions_revoked_total",
			metric.WithDescription("Sessions revoked, by revocation mode"))
		addressTransitions, _ = meter.Int64Counter("address_default_transitions_total",
			metric.WithDescription("Default-address transitions by trigger and outcome"))
		accountEvents, _ = meter.Int64Counter("account_events_total",
			metric.WithDescription("User and profile surface events by outcome"))
	})
}

// RecordRepositoryOperation counts one data-layer operation outcome. Called on
// every repository code path so dashboards can see not_found vs error rates.
func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	instruments()
	repoOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordSessionManagementEvent(ctx context.Context, operation, outcome string) {
	instruments()
	sessionEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordSessionRevokedCount(ctx context.Context, mode string, count int64) {
	if count <= 0 {
		return
	}
	instruments()
	sessionsRevoked.Add(ctx, count, metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordAddressDefaultEvent counts a default-flag transition: trigger is the
// operation that caused it (create_first, set_default, reelect_on_delete),
// outcome is success/not_found/error.
func RecordAddressDefaultEvent(ctx context.Context, trigger, outcome string) {
	instruments()
	addressTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.String("outcome", outcome),
	))
}

func RecordAccountEvent(ctx context.Context, outcome string) {
	instruments()
	accountEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
