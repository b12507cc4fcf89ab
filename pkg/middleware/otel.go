package middleware

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/reportkit-dev/reportkit/pkg/report"
)

// Default tracer name for reportkit applications.
const defaultTracerName = "reportkit"

// OTelConfig configures the OpenTelemetry provider middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "reportkit").
	TracerName string

	// IncludeFilters includes the active filter keys and values in
	// spans. Filter values may contain user data; disabled by default.
	IncludeFilters bool

	// AttributeExtractor extracts custom attributes from the params.
	AttributeExtractor func(p report.Params) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry provider middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeFilters enables recording filter keys and values in spans.
func WithIncludeFilters(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeFilters = include
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(p report.Params) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry creates provider middleware that traces every fetch.
//
// Each fetch becomes a "report.fetch" span carrying the page and limit,
// optionally the filters, and the resulting total. Errors are recorded
// and set the span status. The tracer comes from the global tracer
// provider; configure that in main() before serving.
func OpenTelemetry(opts ...OTelOption) func(report.Provider) report.Provider {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return func(next report.Provider) report.Provider {
		return report.ProviderFunc(func(ctx context.Context, p report.Params) (*report.Result, error) {
			attrs := []attribute.KeyValue{
				attribute.Int("report.page", p.Page),
				attribute.Int("report.limit", p.Limit),
			}
			if config.IncludeFilters {
				for _, e := range p.Filters.Active() {
					attrs = append(attrs,
						attribute.String("report.filter."+e.Key, strings.Join(e.Values, ",")))
				}
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(p)...)
			}

			ctx, span := config.tracer.Start(ctx, "report.fetch",
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			res, err := next.GetReport(ctx, p)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return res, err
			}
			if res != nil {
				span.SetAttributes(
					attribute.Int("report.total", res.Total),
					attribute.Int("report.rows", len(res.Rows)),
				)
			}
			span.SetStatus(codes.Ok, "")
			return res, nil
		})
	}
}
