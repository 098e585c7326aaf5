package otel

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSampler(t *testing.T) {
	tests := []struct {
		sampler string
		arg     string
		want    string
	}{
		{"always_on", "", "AlwaysOnSampler"},
		{"always_off", "", "AlwaysOffSampler"},
		{"traceidratio", "0.5", "TraceIDRatioBased{0.5}"},
		{"parentbased_traceidratio", "0.1", "ParentBased{root:TraceIDRatioBased{0.1}"},
		{"parentbased_always_off", "", "ParentBased{root:AlwaysOffSampler"},
		{"", "", "ParentBased{root:AlwaysOnSampler"},
	}
	for _, tt := range tests {
		t.Run(tt.sampler, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLER", tt.sampler)
			t.Setenv("OTEL_TRACES_SAMPLER_ARG", tt.arg)
			assert.Contains(t, getSampler().Description(), tt.want)
		})
	}
}

func TestSamplerRatio(t *testing.T) {
	assert.Equal(t, 0.25, samplerRatio("0.25"))
	assert.Equal(t, 1.0, samplerRatio(""))
	assert.Equal(t, 1.0, samplerRatio("half"))
	assert.Equal(t, 1.0, samplerRatio("7"))
	assert.Equal(t, 0.0, samplerRatio("-1"))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("WORKBENCH_TEST_KEY", "set")
	assert.Equal(t, "set", getEnv("WORKBENCH_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", getEnv("WORKBENCH_TEST_MISSING", "fallback"))
	t.Setenv("WORKBENCH_TEST_EMPTY", "")
	assert.Equal(t, "fallback", getEnv("WORKBENCH_TEST_EMPTY", "fallback"))
}

func TestInit_Disabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	shutdown, err := Init(context.Background(), log, Options{ServiceVersion: "test", Environment: "test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"tracing_enabled":false`)
}

func TestInit_UnsupportedProtocol(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "false")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "carrier-pigeon")

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	shutdown, err := Init(context.Background(), log, Options{ServiceVersion: "test", Environment: "test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "unsupported OTLP protocol")
}
