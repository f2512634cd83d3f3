package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	GenerationRunsTotal     metric.Int64Counter
	ProviderCallDuration    metric.Float64Histogram
	SubscriptionTransitions metric.Int64Counter
	DbQueryErrorsTotal      metric.Int64Counter
	ContentConflictsTotal   metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("ai-course-generator")
		var err error
		m := &AppMetrics{}

		m.GenerationRunsTotal, err = meter.Int64Counter(
			"generation_pipeline_runs_total",
			metric.WithDescription("Subtopic generation pipeline runs by course type and outcome"),
			metric.WithUnit("{run}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create generation_pipeline_runs_total: %v", err)
		}

		m.ProviderCallDuration, err = meter.Float64Histogram(
			"generation_provider_call_duration_seconds",
			metric.WithDescription("Duration of calls to text, image, video and transcript providers"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create generation_provider_call_duration_seconds: %v", err)
		}

		m.SubscriptionTransitions, err = meter.Int64Counter(
			"subscription_transitions_total",
			metric.WithDescription("Subscription state machine transitions by kind"),
			metric.WithUnit("{transition}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create subscription_transitions_total: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		m.ContentConflictsTotal, err = meter.Int64Counter(
			"course_content_conflicts_total",
			metric.WithDescription("Course content writes rejected by the version check"),
			metric.WithUnit("{conflict}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create course_content_conflicts_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global AppMetrics, initializing the instruments on first use.
// Without a configured MeterProvider the otel no-op provider backs them.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordProviderCall observes one call to an external generation provider.
func RecordProviderCall(ctx context.Context, provider string, start time.Time, err error) {
	Get().ProviderCallDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome(err)),
	))
}

// RecordGenerationRun counts one subtopic pipeline run.
func RecordGenerationRun(ctx context.Context, courseType, result string) {
	Get().GenerationRunsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("course_type", courseType),
		attribute.String("result", result),
	))
}

// RecordSubscriptionTransition counts one subscription state change.
func RecordSubscriptionTransition(ctx context.Context, kind string, err error) {
	Get().SubscriptionTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome(err)),
	))
}

// RecordDBError counts a failed query against table.
func RecordDBError(ctx context.Context, table string) {
	Get().DbQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("table", table)))
}

// RecordContentConflict counts a rejected version check.
func RecordContentConflict(ctx context.Context) {
	Get().ContentConflictsTotal.Add(ctx, 1)
}
