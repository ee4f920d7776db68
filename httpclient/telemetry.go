package httpclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/scaffoldkit/scaffold-client/logger"
	"github.com/scaffoldkit/scaffold-client/observability"
)

const instrumentationName = "github.com/scaffoldkit/scaffold-client/httpclient"

// Metric names recorded by the client
const (
	MetricAttempts = "scaffold.client.attempts"
	MetricRetries  = "scaffold.client.retries"
	MetricDuration = "scaffold.client.duration"
)

// telemetry wraps the tracer and instruments used by one client
type telemetry struct {
	tracer   trace.Tracer
	attempts metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider, log logger.Logger) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	noopMeter := metricnoop.NewMeterProvider().Meter(instrumentationName)

	t := &telemetry{tracer: tp.Tracer(instrumentationName)}

	var err error
	if t.attempts, err = observability.CreateCounter(meter, MetricAttempts, "Request attempts by outcome"); err != nil {
		log.Warn().Err(err).Str("metric", MetricAttempts).Msg("Failed to create instrument")
		t.attempts, _ = noopMeter.Int64Counter(MetricAttempts)
	}
	if t.retries, err = observability.CreateCounter(meter, MetricRetries, "Scheduled retries"); err != nil {
		log.Warn().Err(err).Str("metric", MetricRetries).Msg("Failed to create instrument")
		t.retries, _ = noopMeter.Int64Counter(MetricRetries)
	}
	if t.duration, err = observability.CreateHistogram(meter, MetricDuration, "Attempt duration",
		metric.WithUnit("ms")); err != nil {
		log.Warn().Err(err).Str("metric", MetricDuration).Msg("Failed to create instrument")
		t.duration, _ = noopMeter.Float64Histogram(MetricDuration)
	}
	return t
}

// startCall opens the client span covering every attempt of a call
func (t *telemetry) startCall(ctx context.Context, method, target string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(method),
			semconv.URLFull(target),
		),
	)
}

// recordAttempt adds a span event per transition and records metrics for
// resolved attempts.
func (t *telemetry) recordAttempt(ctx context.Context, span trace.Span, method string, ev AttemptEvent) {
	eventAttrs := []attribute.KeyValue{
		attribute.Int("attempt", ev.Attempt),
		attribute.String("state", ev.State.String()),
	}
	if ev.Err != nil {
		eventAttrs = append(eventAttrs, attribute.String("error", ev.Err.Error()))
	}
	if ev.Delay > 0 {
		eventAttrs = append(eventAttrs, attribute.Int64("backoff_ms", ev.Delay.Milliseconds()))
	}
	span.AddEvent("attempt", trace.WithAttributes(eventAttrs...))

	var outcome string
	switch ev.State {
	case StateSucceeded:
		outcome = "success"
	case StateFailedRetryable:
		outcome = "retryable"
		if !ev.Exhausted {
			t.retries.Add(ctx, 1, metric.WithAttributes(semconv.HTTPRequestMethodKey.String(method)))
		}
	case StateFailedTerminal:
		if ev.Exhausted || ev.Cancelled {
			// already recorded as retryable
			return
		}
		outcome = "terminal"
	case StatePending, StateInFlight:
		return
	default:
		return
	}

	attrs := metric.WithAttributes(
		semconv.HTTPRequestMethodKey.String(method),
		attribute.String("outcome", outcome),
	)
	t.attempts.Add(ctx, 1, attrs)
	t.duration.Record(ctx, float64(ev.Elapsed)/float64(time.Millisecond), attrs)
}

func (t *telemetry) endCall(span trace.Span, resp *Response, err error, attempts int) {
	span.SetAttributes(attribute.Int("scaffold.client.attempt_count", attempts))
	if resp != nil {
		span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
