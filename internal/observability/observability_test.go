package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"namethatobject/internal/config"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), &config.Config{TracingExporter: "zipkin"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), &config.Config{TracingEnabled: true, TracingExporter: "zipkin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		ratio float64
		root  string
	}{
		{1, "root:AlwaysOnSampler"},
		{2, "root:AlwaysOnSampler"},
		{0, "root:AlwaysOffSampler"},
		{0.25, "root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := samplerFor(tt.ratio).Description()
		assert.True(t, strings.HasPrefix(desc, "ParentBased{"+tt.root+","), desc)
	}
}

func TestStartSpan_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := Tracer
	Tracer = tp.Tracer("test")
	defer func() { Tracer = prev }()

	_, span := StartSpan(context.Background(), "account.delete")
	EndSpan(span, errors.New("boom"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "account.delete", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestRepoLogger_WritesTableAndOperation(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	NewRepoLogger("posts").LogDelete(context.Background(), map[string]any{"post_id": 3})

	out := buf.String()
	assert.Contains(t, out, "table=posts")
	assert.Contains(t, out, "operation=delete")
	assert.Contains(t, out, "post_id=3")
}

func TestVotesTotal_Labels(t *testing.T) {
	before := testutil.ToFloat64(VotesTotal.WithLabelValues("post", "up"))
	VotesTotal.WithLabelValues("post", "up").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(VotesTotal.WithLabelValues("post", "up")))
}
