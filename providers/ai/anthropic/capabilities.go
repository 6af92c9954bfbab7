package anthropic

import (
	"slices"
	"strings"
)

// Known beta feature header values for Anthropic's anthropic-beta header.
const (
	// BetaInterleavedThinking enables thinking between tool calls.
	BetaInterleavedThinking = "interleaved-thinking-2025-05-14"

	// BetaContextManagement enables server-side context editing.
	BetaContextManagement = "context-management-2025-06-27"
)

// Capabilities describes optional Anthropic features. All fields default to
// off; set them with [Adapter.WithCapabilities].
type Capabilities struct {
	// PromptCaching marks the system prompt and the last tool definition
	// with an ephemeral cache_control.
	PromptCaching bool

	// BetaFeatures are sent comma-joined in the anthropic-beta header.
	BetaFeatures []string
}

// betaHeaderValue returns the anthropic-beta header value. Interleaved
// thinking is added when thinking is on and tools are present.
func (capabilities Capabilities) betaHeaderValue(thinkingWithTools bool) string {
	features := slices.Clone(capabilities.BetaFeatures)
	if thinkingWithTools && !slices.Contains(features, BetaInterleavedThinking) {
		features = append(features, BetaInterleavedThinking)
	}
	return strings.Join(features, ",")
}
