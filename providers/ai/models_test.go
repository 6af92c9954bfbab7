package ai

import (
	"testing"
)

func ptr[T any](v T) *T { return &v }

// TestChatOptions_Merge_OverrideWins verifies that fields set on the override
// replace the defaults while unset fields keep the default value.
func TestChatOptions_Merge_OverrideWins(t *testing.T) {
	defaults := ChatOptions{
		Temperature:   ptr(0.2),
		MaxTokens:     ptr(256),
		StopSequences: []string{"END"},
		CaptureUsage:  ptr(false),
		ExtraHeaders:  []Header{{Name: "X-Team", Value: "core"}},
		ExtraBody:     map[string]any{"user": "svc", "metadata.tier": "gold"},
	}
	override := ChatOptions{
		Temperature:     ptr(0.9),
		ReasoningEffort: ReasoningHigh,
		ExtraHeaders:    []Header{{Name: "X-Trace", Value: "abc"}},
		ExtraBody:       map[string]any{"user": "caller"},
	}

	merged := defaults.Merge(override)

	if *merged.Temperature != 0.9 {
		t.Errorf("expected override temperature 0.9, got %v", *merged.Temperature)
	}
	if *merged.MaxTokens != 256 {
		t.Errorf("expected default max tokens to survive, got %v", *merged.MaxTokens)
	}
	if merged.ReasoningEffort != ReasoningHigh {
		t.Errorf("expected reasoning effort high, got %q", merged.ReasoningEffort)
	}
	if len(merged.StopSequences) != 1 || merged.StopSequences[0] != "END" {
		t.Errorf("expected default stop sequences, got %v", merged.StopSequences)
	}
	if merged.CapturesUsage() {
		t.Error("expected CaptureUsage=false from defaults")
	}
	if len(merged.ExtraHeaders) != 2 || merged.ExtraHeaders[1].Name != "X-Trace" {
		t.Errorf("expected headers to be appended, got %v", merged.ExtraHeaders)
	}
	if merged.ExtraBody["user"] != "caller" || merged.ExtraBody["metadata.tier"] != "gold" {
		t.Errorf("expected extra body to be merged, got %v", merged.ExtraBody)
	}

	// the receiver must not be mutated
	if defaults.ExtraBody["user"] != "svc" || len(defaults.ExtraHeaders) != 1 {
		t.Error("Merge mutated the defaults")
	}
}

// TestChatOptions_CaptureDefaults verifies the capture defaults: usage on,
// everything else off.
func TestChatOptions_CaptureDefaults(t *testing.T) {
	var options ChatOptions
	if !options.CapturesUsage() {
		t.Error("usage capture should default to on")
	}
	if options.CapturesContent() || options.CapturesReasoning() || options.CapturesToolCalls() {
		t.Error("content, reasoning and tool-call capture should default to off")
	}
	if !options.NormalizesReasoning(true) || options.NormalizesReasoning(false) {
		t.Error("NormalizesReasoning should fall back to the adapter default")
	}
	options.NormalizeReasoningContent = ptr(false)
	if options.NormalizesReasoning(true) {
		t.Error("explicit NormalizeReasoningContent should win over the adapter default")
	}
}

func TestReasoningEffort_Budget(t *testing.T) {
	if ReasoningLow.Budget() >= ReasoningMedium.Budget() || ReasoningMedium.Budget() >= ReasoningHigh.Budget() {
		t.Error("budgets must grow with effort")
	}
	if ReasoningEffort("").Budget() != 0 {
		t.Error("unset effort must have no budget")
	}
}

func TestApplyExtraBody_SetsNestedPaths(t *testing.T) {
	body, err := ApplyExtraBody([]byte(`{"model":"m","stream":false}`), map[string]any{
		"stream":        true,
		"metadata.tier": "gold",
		"service_tier":  "flex",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"model":"m","stream":true,"metadata":{"tier":"gold"},"service_tier":"flex"}`
	if string(body) != want {
		t.Errorf("expected %s, got %s", want, body)
	}
}

func TestParseToolArguments_RepairsTruncatedArguments(t *testing.T) {
	type args struct {
		City string `json:"city"`
	}
	call := ToolCall{Function: ToolCallFunction{Name: "weather", Arguments: `{"city": "Rome"`}}

	parsed, err := ParseToolArguments[args](call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.City != "Rome" {
		t.Errorf("expected city Rome, got %q", parsed.City)
	}

	empty, err := ParseToolArguments[map[string]any](ToolCall{})
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty arguments to decode as an empty object, got %v, %v", empty, err)
	}
}
