package openai

import "github.com/leofalp/unillm/providers/ai"

// Capabilities is the feature set of one OpenAI-compatible host. It drives
// which fields are rendered into the request and how responses are read.
type Capabilities struct {
	// StreamUsage requests stream_options.include_usage on streaming calls.
	// Hosts without it either report usage unasked or not at all.
	StreamUsage bool

	// MaxTokensField is the body field carrying ChatOptions.MaxTokens.
	MaxTokensField string

	// ReasoningEffort selects how ChatOptions.ReasoningEffort is rendered.
	ReasoningEffort ReasoningMode

	SupportsSeed           bool
	SupportsResponseFormat bool

	// InlineThinkTags marks hosts whose models may emit <think> markup in
	// content. Splitting is on by default for them.
	InlineThinkTags bool
}

// ReasoningMode is the wire shape of the reasoning effort option.
type ReasoningMode string

const (
	// ReasoningUnsupported drops the option.
	ReasoningUnsupported ReasoningMode = ""
	// ReasoningEffortField renders "reasoning_effort": "<level>".
	ReasoningEffortField ReasoningMode = "reasoning_effort"
	// ReasoningObject renders "reasoning": {"effort": "<level>"}.
	ReasoningObject ReasoningMode = "reasoning"
)

var capabilitiesByKind = map[ai.AdapterKind]Capabilities{
	ai.KindOpenAI: {
		StreamUsage:            true,
		MaxTokensField:         "max_completion_tokens",
		ReasoningEffort:        ReasoningEffortField,
		SupportsSeed:           true,
		SupportsResponseFormat: true,
	},
	ai.KindGroq: {
		// usage arrives in x_groq.usage on the last chunk
		MaxTokensField:         "max_completion_tokens",
		ReasoningEffort:        ReasoningEffortField,
		SupportsSeed:           true,
		SupportsResponseFormat: true,
		InlineThinkTags:        true,
	},
	ai.KindDeepSeek: {
		StreamUsage:            true,
		MaxTokensField:         "max_tokens",
		SupportsResponseFormat: true,
		InlineThinkTags:        true,
	},
	ai.KindXai: {
		StreamUsage:            true,
		MaxTokensField:         "max_tokens",
		ReasoningEffort:        ReasoningEffortField,
		SupportsSeed:           true,
		SupportsResponseFormat: true,
	},
	ai.KindZhipu: {
		// usage is sent on the final chunk without being asked for
		MaxTokensField:         "max_tokens",
		SupportsResponseFormat: true,
	},
	ai.KindOpenRouter: {
		StreamUsage:            true,
		MaxTokensField:         "max_tokens",
		ReasoningEffort:        ReasoningObject,
		SupportsSeed:           true,
		SupportsResponseFormat: true,
		InlineThinkTags:        true,
	},
}

// Kinds lists the adapter kinds served by this package.
func Kinds() []ai.AdapterKind {
	return []ai.AdapterKind{ai.KindOpenAI, ai.KindGroq, ai.KindDeepSeek, ai.KindXai, ai.KindZhipu, ai.KindOpenRouter}
}

// CapabilitiesFor returns the capabilities of kind. Kinds this package does
// not know get the conservative OpenAI-like defaults.
func CapabilitiesFor(kind ai.AdapterKind) Capabilities {
	if caps, ok := capabilitiesByKind[kind]; ok {
		return caps
	}
	return Capabilities{MaxTokensField: "max_tokens"}
}
