package promobs

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leofalp/unillm/providers/observability"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findFamily(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func labelMap(metric *dto.Metric) map[string]string {
	result := make(map[string]string)
	for _, pair := range metric.GetLabel() {
		result[pair.GetName()] = pair.GetValue()
	}
	return result
}

func TestMetricName(t *testing.T) {
	tests := map[string]string{
		observability.MetricClientRequestCount: "unillm_client_request_count",
		"already_fine":                         "already_fine",
		"with-dash/and space":                  "with_dash_and_space",
	}
	for input, want := range tests {
		if got := MetricName(input); got != want {
			t.Errorf("MetricName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCounter_LabelsFromAttributes(t *testing.T) {
	registry := prometheus.NewRegistry()
	provider := New(registry, nil)

	provider.Counter(observability.MetricClientRequestCount).Add(context.Background(), 2,
		observability.String(observability.AttrLLMProvider, "anthropic"),
		observability.String(observability.AttrLLMModel, "claude-3-haiku-20240307"),
		observability.String(observability.AttrStatus, "error"),
		observability.String(observability.AttrErrorType, "rate_limit"),
		observability.Bool(observability.AttrLLMStream, true),
		observability.String(observability.AttrLLMRequestID, "req_1"),
	)

	family := findFamily(t, registry, "unillm_client_request_count_total")
	if family.GetType() != dto.MetricType_COUNTER || len(family.GetMetric()) != 1 {
		t.Fatalf("unexpected family %v", family)
	}
	metric := family.GetMetric()[0]
	if metric.GetCounter().GetValue() != 2 {
		t.Errorf("expected 2, got %v", metric.GetCounter().GetValue())
	}
	got := labelMap(metric)
	want := map[string]string{"provider": "anthropic", "model": "claude-3-haiku-20240307", "status": "error", "error_class": "rate_limit", "stream": "true"}
	if len(got) != len(want) {
		t.Fatalf("unexpected labels %v", got)
	}
	for key, value := range want {
		if got[key] != value {
			t.Errorf("label %s = %q, want %q", key, got[key], value)
		}
	}
}

func TestHistogram_Buckets(t *testing.T) {
	registry := prometheus.NewRegistry()
	provider := New(registry, nil)

	histogram := provider.Histogram(observability.MetricClientRequestDuration)
	histogram.Record(context.Background(), 0.3, observability.String(observability.AttrLLMProvider, "openai"))
	histogram.Record(context.Background(), 45, observability.String(observability.AttrLLMProvider, "openai"))

	family := findFamily(t, registry, "unillm_client_request_duration")
	observed := family.GetMetric()[0].GetHistogram()
	if observed.GetSampleCount() != 2 {
		t.Errorf("expected 2 samples, got %d", observed.GetSampleCount())
	}
	if len(observed.GetBucket()) != len(LLMBuckets) {
		t.Errorf("expected %d buckets, got %d", len(LLMBuckets), len(observed.GetBucket()))
	}
}

func TestSharedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := New(registry, nil)
	second := New(registry, nil)

	first.Counter("shared").Add(context.Background(), 1)
	second.Counter("shared").Add(context.Background(), 1)

	metric := findFamily(t, registry, "shared_total").GetMetric()[0]
	if metric.GetCounter().GetValue() != 2 {
		t.Errorf("expected both providers to share the collector, got %v", metric.GetCounter().GetValue())
	}
}

func TestHandler(t *testing.T) {
	provider := New(nil, nil)
	provider.Counter(observability.MetricClientTokensTotal).Add(context.Background(), 120)

	recorder := httptest.NewRecorder()
	provider.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(recorder.Body)
	if !strings.Contains(string(body), "unillm_client_tokens_total 120") && !strings.Contains(string(body), "unillm_client_tokens_total{") {
		t.Errorf("metric missing from exposition:\n%s", body)
	}
}

func TestStartSpan_NoOp(t *testing.T) {
	ctx := context.Background()
	got, span := New(nil, nil).StartSpan(ctx, observability.SpanClientChat)
	if got != ctx {
		t.Error("expected the context to be returned unchanged")
	}
	span.SetStatus(observability.StatusOK, "")
	span.End()
}
