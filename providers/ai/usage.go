package ai

// Usage reports token accounting for one call. Every field is a pointer: nil
// means the provider did not report a value. A reported zero is normalized to
// nil as well, so "absent" has exactly one representation.
type Usage struct {
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`

	PromptTokensDetails     *PromptTokensDetails     `json:"prompt_tokens_details,omitempty"`
	CompletionTokensDetails *CompletionTokensDetails `json:"completion_tokens_details,omitempty"`
}

// PromptTokensDetails breaks prompt tokens down by origin.
type PromptTokensDetails struct {
	CacheCreationTokens *int `json:"cache_creation_tokens,omitempty"`
	CachedTokens        *int `json:"cached_tokens,omitempty"`
	AudioTokens         *int `json:"audio_tokens,omitempty"`
}

// CompletionTokensDetails breaks completion tokens down by purpose.
type CompletionTokensDetails struct {
	ReasoningTokens          *int `json:"reasoning_tokens,omitempty"`
	AudioTokens              *int `json:"audio_tokens,omitempty"`
	AcceptedPredictionTokens *int `json:"accepted_prediction_tokens,omitempty"`
	RejectedPredictionTokens *int `json:"rejected_prediction_tokens,omitempty"`
}

// Tokens converts a provider count into a usage field: zero becomes nil.
func Tokens(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

// normalizeCount re-applies the zero-as-absent rule to an existing field.
func normalizeCount(n *int) *int {
	if n == nil {
		return nil
	}
	return Tokens(*n)
}

// Normalize applies the zero-as-absent rule to every field and drops detail
// structs that end up empty. It returns nil for a usage with nothing reported.
func (u *Usage) Normalize() *Usage {
	if u == nil {
		return nil
	}

	out := &Usage{
		PromptTokens:     normalizeCount(u.PromptTokens),
		CompletionTokens: normalizeCount(u.CompletionTokens),
		TotalTokens:      normalizeCount(u.TotalTokens),
	}

	if d := u.PromptTokensDetails; d != nil {
		details := PromptTokensDetails{
			CacheCreationTokens: normalizeCount(d.CacheCreationTokens),
			CachedTokens:        normalizeCount(d.CachedTokens),
			AudioTokens:         normalizeCount(d.AudioTokens),
		}
		if details != (PromptTokensDetails{}) {
			out.PromptTokensDetails = &details
		}
	}

	if d := u.CompletionTokensDetails; d != nil {
		details := CompletionTokensDetails{
			ReasoningTokens:          normalizeCount(d.ReasoningTokens),
			AudioTokens:              normalizeCount(d.AudioTokens),
			AcceptedPredictionTokens: normalizeCount(d.AcceptedPredictionTokens),
			RejectedPredictionTokens: normalizeCount(d.RejectedPredictionTokens),
		}
		if details != (CompletionTokensDetails{}) {
			out.CompletionTokensDetails = &details
		}
	}

	if out.IsEmpty() {
		return nil
	}
	return out
}

// IsEmpty reports whether no field is set.
func (u *Usage) IsEmpty() bool {
	return u == nil || (u.PromptTokens == nil && u.CompletionTokens == nil && u.TotalTokens == nil &&
		u.PromptTokensDetails == nil && u.CompletionTokensDetails == nil)
}

// FoldReasoning adds reasoning tokens that a provider reports separately
// (Gemini's thoughtsTokenCount) into CompletionTokens and records them in
// CompletionTokensDetails.ReasoningTokens. Zero is a no-op.
func (u *Usage) FoldReasoning(reasoningTokens int) {
	if u == nil || reasoningTokens == 0 {
		return
	}
	u.CompletionTokens = Tokens(u.Completion() + reasoningTokens)
	if u.CompletionTokensDetails == nil {
		u.CompletionTokensDetails = &CompletionTokensDetails{}
	}
	u.CompletionTokensDetails.ReasoningTokens = Tokens(reasoningTokens)
}

// Prompt returns PromptTokens or 0.
func (u *Usage) Prompt() int { return valueOrZero(u, func(u *Usage) *int { return u.PromptTokens }) }

// Completion returns CompletionTokens or 0.
func (u *Usage) Completion() int {
	return valueOrZero(u, func(u *Usage) *int { return u.CompletionTokens })
}

// Total returns TotalTokens or 0.
func (u *Usage) Total() int { return valueOrZero(u, func(u *Usage) *int { return u.TotalTokens }) }

// Reasoning returns CompletionTokensDetails.ReasoningTokens or 0.
func (u *Usage) Reasoning() int {
	if u == nil || u.CompletionTokensDetails == nil || u.CompletionTokensDetails.ReasoningTokens == nil {
		return 0
	}
	return *u.CompletionTokensDetails.ReasoningTokens
}

func valueOrZero(u *Usage, field func(*Usage) *int) int {
	if u == nil {
		return 0
	}
	if p := field(u); p != nil {
		return *p
	}
	return 0
}
