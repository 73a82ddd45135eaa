package observability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-alignment-backend/internal/config"
)

// ServiceNamespace groups the backend's spans with the rest of the alignment
// product in trace backends.
const ServiceNamespace = "alignment"

// QuietRoutes are server span names never worth sampling: health checks and scrapes
// would otherwise dominate a low sample ratio.
var QuietRoutes = []string{"/health", "/metrics"}

// Seams swapped by tests.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
				semconv.ServiceNamespace(ServiceNamespace),
			),
		)
	}
)

// UserAttr returns the span attribute identifying a user. Spans leave the
// process, so the id is replaced by a stable truncated SHA-256 that still
// groups one user's traces.
func UserAttr(userID string) attribute.KeyValue {
	sum := sha256.Sum256([]byte(userID))
	return attribute.String("user.hash", hex.EncodeToString(sum[:8]))
}

// quietSampler drops spans named after QuietRoutes and defers everything
// else to next.
type quietSampler struct {
	next  sdktrace.Sampler
	quiet map[string]bool
}

func newQuietSampler(next sdktrace.Sampler, names []string) sdktrace.Sampler {
	q := make(map[string]bool, len(names))
	for _, n := range names {
		q[n] = true
	}
	return quietSampler{next: next, quiet: q}
}

func (s quietSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if s.quiet[p.Name] {
		return sdktrace.SamplingResult{
			Decision:   sdktrace.Drop,
			Tracestate: trace.SpanContextFromContext(p.ParentContext).TraceState(),
		}
	}
	return s.next.ShouldSample(p)
}

func (s quietSampler) Description() string {
	return "QuietRoutes{" + s.next.Description() + "}"
}

// SetupOTel configures OpenTelemetry tracing and returns a shutdown function.
// Globals are only replaced once every component was built.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(opts...))
	if err != nil {
		return nil, err
	}
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	sampler := newQuietSampler(
		sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		QuietRoutes,
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}
