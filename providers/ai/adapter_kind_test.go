package ai

import (
	"strings"
	"testing"
)

func TestClassifyModel_DefaultTable(t *testing.T) {
	tests := []struct {
		model string
		want  AdapterKind
	}{
		{"gpt-4o-mini", KindOpenAI},
		{"o1-preview", KindOpenAI},
		{"o3-mini", KindOpenAI},
		{"o4-mini", KindOpenAI},
		{"chatgpt-4o-latest", KindOpenAI},
		{"claude-3-haiku-20240307", KindAnthropic},
		{"gemini-2.0-flash", KindGemini},
		{"command-r-plus", KindCohere},
		{"glm-4-plus", KindZhipu},
		{"grok-3-mini", KindXai},
		{"llama-3.1-8b-instant", KindGroq},
		{"deepseek-r1-distill-llama-70b", KindGroq},
		{"meta-llama/llama-4-scout-17b-16e-instruct", KindGroq},
		{"deepseek-coder", KindDeepSeek},
		{"deepseek-reasoner", KindDeepSeek},
		{"mistralai/mistral-small", KindOpenRouter},
		{"llama3.2", KindOllama},
		{"", KindOllama},
		{"::", KindOllama},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := ClassifyModel(ParseModelName(tt.model)); got != tt.want {
				t.Errorf("ClassifyModel(%q) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}

// TestClassifyModel_NamespaceOverride verifies that a known namespace tag
// wins over the name-based rules.
func TestClassifyModel_NamespaceOverride(t *testing.T) {
	tests := []struct {
		model string
		want  AdapterKind
	}{
		{"groq::gpt-4o-mini", KindGroq},
		{"openai::claude-3-haiku", KindOpenAI},
		{"ollama::deepseek-r1", KindOllama},
		{"openrouter::anthropic/claude-3.5-sonnet", KindOpenRouter},
		// unknown namespaces fall through to the bare name
		{"custom::gemini-1.5-pro", KindGemini},
		{"OpenAI::llama3", KindOllama},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := ClassifyModel(ParseModelName(tt.model)); got != tt.want {
				t.Errorf("ClassifyModel(%q) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}

// TestClassifyModel_Total verifies that arbitrary inputs always produce a
// valid kind, the same one on every call.
func TestClassifyModel_Total(t *testing.T) {
	inputs := []string{
		"", " ", "::::", "a::b::c", "gpt", strings.Repeat("x", 4096),
		"模型", "claude::", "/", "a/b/c", "\x00\xff",
	}
	for _, input := range inputs {
		first := ClassifyModel(ParseModelName(input))
		if !first.Valid() {
			t.Errorf("ClassifyModel(%q) returned invalid kind %q", input, first)
		}
		for range 3 {
			if again := ClassifyModel(ParseModelName(input)); again != first {
				t.Errorf("ClassifyModel(%q) is not stable: %q then %q", input, first, again)
			}
		}
	}
}

func TestParseModelName_SplitsOnFirstSeparator(t *testing.T) {
	model := ParseModelName("openrouter::meta::llama")
	namespace, ok := model.Namespace()
	if !ok || namespace != "openrouter" {
		t.Errorf("expected namespace openrouter, got %q (%v)", namespace, ok)
	}
	if model.Name() != "meta::llama" {
		t.Errorf("expected name meta::llama, got %q", model.Name())
	}
	if model.String() != "openrouter::meta::llama" {
		t.Errorf("String() must return the raw input, got %q", model.String())
	}

	bare := ParseModelName("gpt-4o")
	if _, ok := bare.Namespace(); ok {
		t.Error("bare name must have no namespace")
	}
}

func TestAdapterKind_StaticData(t *testing.T) {
	for _, kind := range AllAdapterKinds() {
		endpoint := kind.DefaultEndpoint()
		if !strings.HasSuffix(endpoint.BaseURL, "/") {
			t.Errorf("%s endpoint %q must end with a slash", kind, endpoint.BaseURL)
		}
		if kind.RequiresAuth() != (kind.DefaultEnvKey() != "") {
			t.Errorf("%s RequiresAuth disagrees with DefaultEnvKey", kind)
		}
		if got, ok := KindFromTag(kind.String()); !ok || got != kind {
			t.Errorf("tag %q does not round-trip", kind)
		}
	}

	if KindAnthropic.DefaultEnvKey() != "ANTHROPIC_API_KEY" {
		t.Errorf("unexpected anthropic env key %q", KindAnthropic.DefaultEnvKey())
	}
	if KindOllama.RequiresAuth() {
		t.Error("ollama must not require auth")
	}
	if AdapterKind("nope").Valid() {
		t.Error("unknown kind must not be valid")
	}
}

func TestEndpoint_URL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://api.openai.com/v1/", "chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"https://proxy.local/v1", "/chat/completions", "https://proxy.local/v1/chat/completions"},
		{"http://localhost:11434/", "api/chat", "http://localhost:11434/api/chat"},
	}
	for _, tt := range tests {
		if got := (Endpoint{BaseURL: tt.base}).URL(tt.path); got != tt.want {
			t.Errorf("URL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}
