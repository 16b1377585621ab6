package memo

import (
	"github.com/agentuity/go-memo/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// config holds the resolved configuration of a Cache.
type config struct {
	logger      logger.Logger
	codec       Codec
	saveOnClose bool
	finalizer   bool
	meter       metric.Meter
	tracer      trace.Tracer
}

// Option configures a Cache.
type Option func(*config)

func defaultConfig() config {
	return config{
		codec:       MsgpackCodec,
		saveOnClose: true,
		finalizer:   true,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.NewConsoleLogger(logger.GetLevelFromEnv())
	}
	if cfg.meter == nil {
		cfg.meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return cfg
}

// WithLogger sets the logger. Defaults to a console logger at the level
// named by MEMO_LOG_LEVEL.
func WithLogger(l logger.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithCodec sets the snapshot codec. Defaults to MsgpackCodec. A snapshot
// can only be loaded with the codec that wrote it.
func WithCodec(codec Codec) Option {
	return func(c *config) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithSaveOnClose controls whether Close saves the store. Defaults to true.
func WithSaveOnClose(save bool) Option {
	return func(c *config) { c.saveOnClose = save }
}

// WithFinalizer controls the cleanup that closes a cache which became
// unreachable without Close being called. Defaults to true.
func WithFinalizer(enabled bool) Option {
	return func(c *config) { c.finalizer = enabled }
}

// WithMeter sets the meter for call and snapshot metrics. Defaults to the
// global meter provider.
func WithMeter(m metric.Meter) Option {
	return func(c *config) { c.meter = m }
}

// WithTracer sets the tracer for load and save spans. Defaults to the
// global tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) { c.tracer = t }
}
