package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newCollectableManager builds a manager whose instruments report to a
// manual reader, so tests can collect what was recorded.
func newCollectableManager(t *testing.T) (*ObservabilityManager, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	om := &ObservabilityManager{
		config:        ObservabilityConfig{ServiceName: "resufit-test", Enabled: true},
		meterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
	if err := om.createInstruments(); err != nil {
		t.Fatalf("createInstruments() error = %v", err)
	}
	return om, reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %q not collected", name)
	return metricdata.Metrics{}
}

func TestTrackAIOperationRecordsTokenUsage(t *testing.T) {
	om, reader := newCollectableManager(t)

	err := om.GetMetrics().TrackAIOperationWithTokens(context.Background(), "extract_skills",
		func(_ context.Context) *AIOperationResult {
			return &AIOperationResult{TokenUsage: &TokenUsage{
				InputTokens:  120,
				OutputTokens: 30,
				TotalTokens:  150,
			}}
		}, om)
	if err != nil {
		t.Fatalf("TrackAIOperationWithTokens() error = %v", err)
	}

	m := collectMetric(t, reader, "resufit_ai_tokens_total")
	hist, ok := m.Data.(metricdata.Histogram[int64])
	if !ok {
		t.Fatalf("resufit_ai_tokens_total data = %T, want int64 histogram", m.Data)
	}

	want := map[string]int64{"input": 120, "output": 30, "total": 150}
	if len(hist.DataPoints) != len(want) {
		t.Fatalf("got %d datapoints, want %d", len(hist.DataPoints), len(want))
	}
	for _, dp := range hist.DataPoints {
		v, ok := dp.Attributes.Value("token_type")
		if !ok {
			t.Fatal("datapoint missing token_type attribute")
		}
		kind := v.AsString()
		if dp.Sum != want[kind] {
			t.Errorf("token_type %s sum = %d, want %d", kind, dp.Sum, want[kind])
		}
		delete(want, kind)
	}
	if len(want) != 0 {
		t.Errorf("token types not recorded: %v", want)
	}

	requests := collectMetric(t, reader, "resufit_ai_requests_total")
	sum, ok := requests.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("resufit_ai_requests_total data = %T, want int64 sum", requests.Data)
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("request count datapoints = %+v, want single value 1", sum.DataPoints)
	}
}

func TestTrackAIOperationCountsErrors(t *testing.T) {
	om, reader := newCollectableManager(t)

	opErr := errors.New("model unavailable")
	err := om.GetMetrics().TrackAIOperationWithTokens(context.Background(), "justify",
		func(_ context.Context) *AIOperationResult {
			return &AIOperationResult{Error: opErr}
		}, om)
	if !errors.Is(err, opErr) {
		t.Fatalf("TrackAIOperationWithTokens() error = %v, want %v", err, opErr)
	}

	m := collectMetric(t, reader, "resufit_ai_errors_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("resufit_ai_errors_total data = %T, want int64 sum", m.Data)
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("error count datapoints = %+v, want single value 1", sum.DataPoints)
	}
}

func TestTrackAIOperationMetricsDisabled(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{}, nil)
	if err != nil {
		t.Fatalf("NewObservabilityManager() error = %v", err)
	}

	calls := 0
	opErr := errors.New("boom")
	got := om.GetMetrics().TrackAIOperationWithTokens(context.Background(), "extract_name",
		func(_ context.Context) *AIOperationResult {
			calls++
			return &AIOperationResult{Error: opErr}
		}, om)

	if calls != 1 {
		t.Errorf("operation ran %d times, want 1", calls)
	}
	if !errors.Is(got, opErr) {
		t.Errorf("error = %v, want %v", got, opErr)
	}
}

func TestRecordBusinessMetricRateLimitHit(t *testing.T) {
	om, reader := newCollectableManager(t)

	om.GetMetrics().RecordBusinessMetric(context.Background(), "rate_limit_hit", true, om,
		attribute.String("endpoint", "/rate"))

	m := collectMetric(t, reader, "resufit_rate_limit_hits_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("resufit_rate_limit_hits_total data = %T, want int64 sum", m.Data)
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Fatalf("rate limit hit datapoints = %+v, want single value 1", sum.DataPoints)
	}
	if v, ok := sum.DataPoints[0].Attributes.Value("endpoint"); !ok || v.AsString() != "/rate" {
		t.Errorf("endpoint attribute = %v, want /rate", v)
	}
}
