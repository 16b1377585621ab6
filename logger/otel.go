package logger

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/log"
)

// otelLogger emits records to an OpenTelemetry log.Logger.
type otelLogger struct {
	ctx        context.Context
	prefixes   []string
	metadata   map[string]log.Value
	logLevel   LogLevel
	otelLogger log.Logger
}

var _ Logger = (*otelLogger)(nil)

func (o *otelLogger) clone() *otelLogger {
	kv := make(map[string]log.Value, len(o.metadata))
	for k, v := range o.metadata {
		kv[k] = v
	}
	return &otelLogger{
		ctx:        o.ctx,
		prefixes:   slices.Clone(o.prefixes),
		metadata:   kv,
		logLevel:   o.logLevel,
		otelLogger: o.otelLogger,
	}
}

func (o *otelLogger) WithPrefix(prefix string) Logger {
	l := o.clone()
	if !slices.Contains(l.prefixes, prefix) {
		l.prefixes = append(l.prefixes, prefix)
	}
	return l
}

func (o *otelLogger) WithContext(ctx context.Context) Logger {
	l := o.clone()
	l.ctx = ctx
	return l
}

func toLogValue(unknown interface{}) log.Value {
	switch v := unknown.(type) {
	case string:
		return log.StringValue(v)
	case int:
		return log.IntValue(v)
	case int64:
		return log.Int64Value(v)
	case uint64:
		return log.Int64Value(int64(v))
	case bool:
		return log.BoolValue(v)
	case float64:
		return log.Float64Value(v)
	case []byte:
		return log.BytesValue(v)
	case []interface{}:
		values := make([]log.Value, 0, len(v))
		for _, item := range v {
			values = append(values, toLogValue(item))
		}
		return log.SliceValue(values...)
	case map[string]interface{}:
		values := make([]log.KeyValue, 0, len(v))
		for k, item := range v {
			values = append(values, log.KeyValue{Key: k, Value: toLogValue(item)})
		}
		return log.MapValue(values...)
	default:
		return log.StringValue(fmt.Sprintf("%v", v))
	}
}

func (o *otelLogger) With(metadata map[string]interface{}) Logger {
	l := o.clone()
	for k, v := range metadata {
		l.metadata[k] = toLogValue(v)
	}
	return l
}

func (o *otelLogger) Stack(next Logger) Logger {
	return &stackedLogger{Logger: o, next: next}
}

func (o *otelLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= o.logLevel
}

func (o *otelLogger) log(level LogLevel, severity log.Severity, msg string, args ...interface{}) {
	if level < o.logLevel {
		return
	}
	formatted := fmt.Sprintf(msg, args...)
	if len(o.prefixes) > 0 {
		formatted = strings.Join(o.prefixes, " ") + " " + formatted
	}
	now := time.Now()
	var record log.Record
	record.SetBody(log.StringValue(formatted))
	record.SetSeverity(severity)
	record.SetSeverityText(severity.String())
	record.SetObservedTimestamp(now)
	record.SetTimestamp(now)
	for k, v := range o.metadata {
		record.AddAttributes(log.KeyValue{Key: k, Value: v})
	}
	ctx := o.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	o.otelLogger.Emit(ctx, record)
}

func (o *otelLogger) Trace(msg string, args ...interface{}) {
	o.log(LevelTrace, log.SeverityTrace, msg, args...)
}

func (o *otelLogger) Debug(msg string, args ...interface{}) {
	o.log(LevelDebug, log.SeverityDebug, msg, args...)
}

func (o *otelLogger) Info(msg string, args ...interface{}) {
	o.log(LevelInfo, log.SeverityInfo, msg, args...)
}

func (o *otelLogger) Warn(msg string, args ...interface{}) {
	o.log(LevelWarn, log.SeverityWarn, msg, args...)
}

func (o *otelLogger) Error(msg string, args ...interface{}) {
	o.log(LevelError, log.SeverityError, msg, args...)
}

func (o *otelLogger) Fatal(msg string, args ...interface{}) {
	o.log(LevelError, log.SeverityFatal, msg, args...)
	os.Exit(1)
}

// NewOtelLogger returns a Logger that emits records at or above level.
func NewOtelLogger(l log.Logger, level LogLevel) Logger {
	return &otelLogger{
		ctx:        context.Background(),
		metadata:   map[string]log.Value{},
		logLevel:   level,
		otelLogger: l,
	}
}

// stackedLogger fans every call out to two loggers.
type stackedLogger struct {
	Logger
	next Logger
}

func (s *stackedLogger) With(metadata map[string]interface{}) Logger {
	return &stackedLogger{Logger: s.Logger.With(metadata), next: s.next.With(metadata)}
}

func (s *stackedLogger) WithPrefix(prefix string) Logger {
	return &stackedLogger{Logger: s.Logger.WithPrefix(prefix), next: s.next.WithPrefix(prefix)}
}

func (s *stackedLogger) WithContext(ctx context.Context) Logger {
	return &stackedLogger{Logger: s.Logger.WithContext(ctx), next: s.next.WithContext(ctx)}
}

func (s *stackedLogger) Trace(msg string, args ...interface{}) {
	s.Logger.Trace(msg, args...)
	s.next.Trace(msg, args...)
}

func (s *stackedLogger) Debug(msg string, args ...interface{}) {
	s.Logger.Debug(msg, args...)
	s.next.Debug(msg, args...)
}

func (s *stackedLogger) Info(msg string, args ...interface{}) {
	s.Logger.Info(msg, args...)
	s.next.Info(msg, args...)
}

func (s *stackedLogger) Warn(msg string, args ...interface{}) {
	s.Logger.Warn(msg, args...)
	s.next.Warn(msg, args...)
}

func (s *stackedLogger) Error(msg string, args ...interface{}) {
	s.Logger.Error(msg, args...)
	s.next.Error(msg, args...)
}

func (s *stackedLogger) IsLevelEnabled(level LogLevel) bool {
	return s.Logger.IsLevelEnabled(level) || s.next.IsLevelEnabled(level)
}
