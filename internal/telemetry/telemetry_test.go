package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestNormalizeOTLPEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		hostport string
		urlPath  string
		insecure bool
		resolved string
		wantErr  bool
	}{
		{"default localhost", "http://localhost:4318", "localhost:4318", "/v1/traces", true, "http://localhost:4318/v1/traces", false},
		{"trailing slash base", "http://collector:4318/", "collector:4318", "/v1/traces", true, "http://collector:4318/v1/traces", false},
		{"already traces path", "http://collector:4318/v1/traces", "collector:4318", "/v1/traces", true, "http://collector:4318/v1/traces", false},
		{"custom base path", "https://otlp.example.com:4318/otlp", "otlp.example.com:4318", "/otlp/v1/traces", false, "https://otlp.example.com:4318/otlp/v1/traces", false},
		{"invalid no scheme", "collector:4318", "", "", true, "", true},
		{"invalid url", "http://[invalid", "", "", true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp, path, insecure, resolved, err := normalizeOTLPEndpoint(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hostport, hp)
			assert.Equal(t, tt.urlPath, path)
			assert.Equal(t, tt.insecure, insecure)
			assert.Equal(t, tt.resolved, resolved)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.NotNil(t, config)
	assert.False(t, config.Enabled)
	assert.Equal(t, ExporterStdout, config.Exporter)
	assert.Equal(t, "http://localhost:4318", config.OTLPEndpoint)
	assert.Equal(t, ServiceName, config.ServiceName)
	assert.Equal(t, ServiceVersion, config.ServiceVersion)
	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 1.0, config.SampleRate)
	assert.Equal(t, 5*time.Second, config.BatchTimeout)
}

func TestInitTelemetryDisabled(t *testing.T) {
	provider, err := InitTelemetry(context.Background(), TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, provider.Enabled())
	assert.Equal(t, ExporterNone, provider.Exporter())
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestInitTelemetryNoneExporter(t *testing.T) {
	provider, err := InitTelemetry(context.Background(), TelemetryConfig{Enabled: true, Exporter: ExporterNone})
	require.NoError(t, err)
	assert.False(t, provider.Enabled())
}

func TestInitTelemetryStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	config := *DefaultConfig()
	config.Enabled = true
	config.Environment = "test"
	config.Writer = &buf

	provider, err := InitTelemetry(context.Background(), config)
	require.NoError(t, err)
	assert.True(t, provider.Enabled())
	assert.Equal(t, ExporterStdout, provider.Exporter())

	_, span := StartSpan(context.Background(), GetAnalysisTracer(), "analysis.test",
		StringAttribute("token", "DezX...B263"))
	SetSpanAttributes(span, Int64Attribute("attempt", 2), BoolAttribute("fallback", false))
	RecordError(span, assert.AnError)
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "analysis.test")
	assert.Contains(t, buf.String(), "DezX...B263")
}

func TestInitTelemetryInvalidEndpoint(t *testing.T) {
	provider, err := InitTelemetry(context.Background(), TelemetryConfig{
		Enabled:      true,
		Exporter:     ExporterOTLP,
		OTLPEndpoint: "invalid-url://[invalid",
	})
	assert.Error(t, err)
	assert.Nil(t, provider)
	assert.Contains(t, err.Error(), "invalid OTLPEndpoint")
}

func TestInitTelemetryUnsupportedExporter(t *testing.T) {
	_, err := InitTelemetry(context.Background(), TelemetryConfig{Enabled: true, Exporter: "zipkin"})
	assert.ErrorContains(t, err, "unsupported exporter")
}

func TestTracerGetters(t *testing.T) {
	assert.NotNil(t, GetTracer("test-tracer"))
	assert.NotNil(t, GetHTTPTracer())
	assert.NotNil(t, GetAnalysisTracer())
	assert.NotNil(t, GetExternalTracer())
}

func TestSpanHelpersOnNoopTracer(t *testing.T) {
	ctx, span := StartSpan(context.Background(), GetTracer("test"), "test-span")
	assert.NotNil(t, ctx)
	SetSpanAttributes(span, attribute.String("test-key", "test-value"))
	RecordError(span, nil)
	SetSpanStatus(span, codes.Ok, "success")
	span.End()
}

func TestAttributeHelpers(t *testing.T) {
	strAttr := StringAttribute("key", "value")
	assert.Equal(t, attribute.Key("key"), strAttr.Key)
	assert.Equal(t, "value", strAttr.Value.AsString())

	intAttr := Int64Attribute("key", 42)
	assert.Equal(t, attribute.INT64, intAttr.Value.Type())
	assert.Equal(t, int64(42), intAttr.Value.AsInt64())

	boolAttr := BoolAttribute("key", true)
	assert.Equal(t, attribute.BOOL, boolAttr.Value.Type())
	assert.True(t, boolAttr.Value.AsBool())
}
