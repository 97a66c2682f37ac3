package jaeger

import (
	"context"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Controller owns the tracer provider for graceful shutdown.
type Controller struct {
	traceProvider *sdktrace.TracerProvider
}

// MustInitTracing creates the jaeger exporter and installs the global
// tracer provider.
func MustInitTracing() *Controller {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(viper.GetString("jaeger.endpoint")),
	))
	if err != nil {
		panic(err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("pos-sync-svc"),
		)),
	)

	otel.SetTracerProvider(tp)

	return &Controller{
		traceProvider: tp,
	}
}

// Shutdown flushes and stops the tracer provider.
func (c *Controller) Shutdown() error {
	return c.traceProvider.Shutdown(context.Background())
}
