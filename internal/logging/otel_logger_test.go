package logging

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type exportedRecord struct {
	body     string
	severity otellog.Severity
	attrs    map[string]string
}

type memoryExporter struct {
	mu      sync.Mutex
	records []exportedRecord
}

func (e *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		attrs := map[string]string{}
		r.WalkAttributes(func(kv otellog.KeyValue) bool {
			attrs[kv.Key] = kv.Value.AsString()
			return true
		})
		e.records = append(e.records, exportedRecord{
			body:     r.Body().AsString(),
			severity: r.Severity(),
			attrs:    attrs,
		})
	}
	return nil
}

func (e *memoryExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryExporter) ForceFlush(context.Context) error { return nil }

func TestOTLPHook_ForwardsEntries(t *testing.T) {
	exporter := &memoryExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	hook := newOTLPHook(provider.Logger("test"), provider.Shutdown)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(hook)

	logger.WithField("token", "DezX...B263").WithError(errors.New("upstream down")).Error("analysis failed")

	require.Len(t, exporter.records, 1)
	rec := exporter.records[0]
	assert.Equal(t, "analysis failed", rec.body)
	assert.Equal(t, otellog.SeverityError, rec.severity)
	assert.Equal(t, "DezX...B263", rec.attrs["token"])
	assert.Equal(t, "upstream down", rec.attrs[logrus.ErrorKey])

	assert.NoError(t, hook.Shutdown(context.Background()))
}

func TestOTLPHook_Levels(t *testing.T) {
	hook := newOTLPHook(nil, nil)
	assert.Equal(t, logrus.AllLevels, hook.Levels())
	assert.NoError(t, hook.Shutdown(context.Background()))
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, severityFor(logrus.DebugLevel))
	assert.Equal(t, otellog.SeverityInfo, severityFor(logrus.InfoLevel))
	assert.Equal(t, otellog.SeverityWarn, severityFor(logrus.WarnLevel))
	assert.Equal(t, otellog.SeverityFatal, severityFor(logrus.PanicLevel))
}

func TestCollectorHost(t *testing.T) {
	tests := []struct {
		in       string
		host     string
		insecure bool
	}{
		{"", "localhost:4318", true},
		{"collector:4318", "collector:4318", true},
		{"http://collector:4318", "collector:4318", true},
		{"https://otlp.example.com", "otlp.example.com", false},
	}
	for _, tt := range tests {
		host, insecure := collectorHost(tt.in)
		assert.Equal(t, tt.host, host, tt.in)
		assert.Equal(t, tt.insecure, insecure, tt.in)
	}
}
