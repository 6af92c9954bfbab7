package ai

import (
	"slices"
	"strings"
)

// AdapterKind identifies the provider backend that serves a call. The set is
// closed: every kind listed here has exactly one Adapter implementation, and
// the string value doubles as the namespace tag accepted in "tag::model" names.
type AdapterKind string

const (
	KindOpenAI     AdapterKind = "openai"
	KindAnthropic  AdapterKind = "anthropic"
	KindGemini     AdapterKind = "gemini"
	KindCohere     AdapterKind = "cohere"
	KindGroq       AdapterKind = "groq"
	KindDeepSeek   AdapterKind = "deepseek"
	KindXai        AdapterKind = "xai"
	KindZhipu      AdapterKind = "zhipu" // GLM models
	KindOpenRouter AdapterKind = "openrouter"
	KindOllama     AdapterKind = "ollama" // local / self-hosted, also the fallback kind
)

// DefaultKind is selected when no classification rule matches a model name.
const DefaultKind = KindOllama

// kindInfo is the static, per-provider default data.
type kindInfo struct {
	baseURL string
	envKey  string // empty when the provider needs no credential
}

var kindTable = map[AdapterKind]kindInfo{
	KindOpenAI:     {baseURL: "https://api.openai.com/v1/", envKey: "OPENAI_API_KEY"},
	KindAnthropic:  {baseURL: "https://api.anthropic.com/v1/", envKey: "ANTHROPIC_API_KEY"},
	KindGemini:     {baseURL: "https://generativelanguage.googleapis.com/v1beta/", envKey: "GEMINI_API_KEY"},
	KindCohere:     {baseURL: "https://api.cohere.com/v2/", envKey: "COHERE_API_KEY"},
	KindGroq:       {baseURL: "https://api.groq.com/openai/v1/", envKey: "GROQ_API_KEY"},
	KindDeepSeek:   {baseURL: "https://api.deepseek.com/v1/", envKey: "DEEPSEEK_API_KEY"},
	KindXai:        {baseURL: "https://api.x.ai/v1/", envKey: "XAI_API_KEY"},
	KindZhipu:      {baseURL: "https://open.bigmodel.cn/api/paas/v4/", envKey: "ZHIPU_API_KEY"},
	KindOpenRouter: {baseURL: "https://openrouter.ai/api/v1/", envKey: "OPENROUTER_API_KEY"},
	KindOllama:     {baseURL: "http://localhost:11434/"},
}

// kindOrder fixes the iteration order of AllAdapterKinds.
var kindOrder = []AdapterKind{
	KindOpenAI, KindAnthropic, KindGemini, KindCohere, KindGroq,
	KindDeepSeek, KindXai, KindZhipu, KindOpenRouter, KindOllama,
}

// AllAdapterKinds returns every supported kind in a stable order.
func AllAdapterKinds() []AdapterKind {
	return slices.Clone(kindOrder)
}

// KindFromTag returns the kind whose tag equals tag exactly.
func KindFromTag(tag string) (AdapterKind, bool) {
	kind := AdapterKind(tag)
	_, ok := kindTable[kind]
	return kind, ok
}

// String returns the provider tag.
func (k AdapterKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the supported kinds.
func (k AdapterKind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

// DefaultEndpoint returns the provider's public base URL. The URL always ends
// with a slash so adapters can append their service path.
func (k AdapterKind) DefaultEndpoint() Endpoint {
	return Endpoint{BaseURL: kindTable[k].baseURL}
}

// DefaultEnvKey returns the conventional environment variable holding the
// provider's API key, or "" for providers that need no credential.
func (k AdapterKind) DefaultEnvKey() string {
	return kindTable[k].envKey
}

// RequiresAuth reports whether the provider expects a credential by default.
func (k AdapterKind) RequiresAuth() bool {
	return kindTable[k].envKey != ""
}

/*
	DEFAULT CLASSIFICATION
*/

// classificationRule maps a bare model name to a kind. Rules are evaluated in
// declaration order and the first match wins.
type classificationRule struct {
	kind  AdapterKind
	match func(name string) bool
}

func hasAnyPrefix(prefixes ...string) func(string) bool {
	return func(name string) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
		return false
	}
}

// groqModels lists model names served by Groq under their own naming. Some of
// them contain a slash and must match before the router rule.
var groqModels = []string{
	"llama-3.1-8b-instant",
	"llama-3.3-70b-versatile",
	"llama3-70b-8192",
	"llama3-8b-8192",
	"gemma2-9b-it",
	"mixtral-8x7b-32768",
	"qwen-qwq-32b",
	"deepseek-r1-distill-llama-70b",
	"meta-llama/llama-4-scout-17b-16e-instruct",
	"meta-llama/llama-4-maverick-17b-128e-instruct",
	"moonshotai/kimi-k2-instruct",
	"openai/gpt-oss-20b",
	"openai/gpt-oss-120b",
}

var defaultClassificationRules = []classificationRule{
	{kind: KindOpenAI, match: hasAnyPrefix("gpt", "o1", "o3", "o4", "chatgpt", "codex")},
	{kind: KindAnthropic, match: hasAnyPrefix("claude")},
	{kind: KindGemini, match: hasAnyPrefix("gemini")},
	{kind: KindCohere, match: hasAnyPrefix("command")},
	{kind: KindZhipu, match: hasAnyPrefix("glm")},
	{kind: KindXai, match: hasAnyPrefix("grok")},
	{kind: KindGroq, match: func(name string) bool { return slices.Contains(groqModels, name) }},
	{kind: KindDeepSeek, match: hasAnyPrefix("deepseek")},
	{kind: KindOpenRouter, match: func(name string) bool { return strings.Contains(name, "/") }},
}

// ClassifyModel selects the adapter kind for a model name. An explicit
// namespace that equals a known provider tag always wins; otherwise the bare
// name is matched against the ordered rule table, falling back to
// [DefaultKind]. The function is total and depends only on its input.
func ClassifyModel(model ModelName) AdapterKind {
	if namespace, ok := model.Namespace(); ok {
		if kind, known := KindFromTag(namespace); known {
			return kind
		}
	}

	name := model.Name()
	for _, rule := range defaultClassificationRules {
		if rule.match(name) {
			return rule.kind
		}
	}

	return DefaultKind
}
