package anthropic

import "encoding/json"

/*
	ANTHROPIC MESSAGES API - REQUEST TYPES
*/

// anthropicRequest represents the request body for Anthropic's Messages API.
type anthropicRequest struct {
	Model         string                   `json:"model"`
	Messages      []anthropicMessage       `json:"messages"`
	System        json.RawMessage          `json:"system,omitempty"` // String or []anthropicContentBlock
	MaxTokens     int                      `json:"max_tokens"`       // Required by Anthropic on every request
	Temperature   *float64                 `json:"temperature,omitempty"`
	TopP          *float64                 `json:"top_p,omitempty"`
	StopSequences []string                 `json:"stop_sequences,omitempty"`
	Tools         []anthropicTool          `json:"tools,omitempty"`
	Stream        bool                     `json:"stream,omitempty"`
	Thinking      *anthropicThinkingConfig `json:"thinking,omitempty"`
}

// anthropicThinkingConfig enables extended thinking with a token budget.
type anthropicThinkingConfig struct {
	Type         string `json:"type"` // "enabled"
	BudgetTokens int    `json:"budget_tokens"`
}

// anthropicMessage represents a single message in the conversation.
type anthropicMessage struct {
	Role    string                  `json:"role"`    // "user" or "assistant"
	Content []anthropicContentBlock `json:"content"` // Array of content blocks
}

// anthropicContentBlock is a discriminated union via the Type field:
//   - "text": Text + optional CacheControl
//   - "tool_use": ID, Name, Input
//   - "tool_result": ToolUseID, Content
type anthropicContentBlock struct {
	Type         string                 `json:"type"`
	Text         string                 `json:"text,omitempty"`
	ID           string                 `json:"id,omitempty"`
	Name         string                 `json:"name,omitempty"`
	Input        json.RawMessage        `json:"input,omitempty"`
	ToolUseID    string                 `json:"tool_use_id,omitempty"`
	Content      string                 `json:"content,omitempty"`
	CacheControl *anthropicCacheControl `json:"cache_control,omitempty"`
}

// anthropicCacheControl controls prompt caching on content blocks and tool definitions.
type anthropicCacheControl struct {
	Type string `json:"type"` // "ephemeral"
}

// anthropicTool describes a tool/function available to the model.
type anthropicTool struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	InputSchema  json.RawMessage        `json:"input_schema"`
	CacheControl *anthropicCacheControl `json:"cache_control,omitempty"`
}

/*
	ANTHROPIC MESSAGES API - RESPONSE TYPES
*/

// anthropicResponse represents the response from Anthropic's Messages API.
type anthropicResponse struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"` // "message"
	Content    []responseContentBlock `json:"content"`
	Model      string                 `json:"model"`
	StopReason string                 `json:"stop_reason"`
	Usage      anthropicUsage         `json:"usage"`
}

// responseContentBlock represents a content block in the response. Unknown
// types are ignored.
type responseContentBlock struct {
	Type     string          `json:"type"`               // "text", "thinking", "redacted_thinking", "tool_use"
	Text     string          `json:"text,omitempty"`     // For type="text"
	Thinking string          `json:"thinking,omitempty"` // For type="thinking"
	ID       string          `json:"id,omitempty"`       // For type="tool_use"
	Name     string          `json:"name,omitempty"`     // For type="tool_use"
	Input    json.RawMessage `json:"input,omitempty"`    // For type="tool_use"
}

// anthropicUsage reports token consumption. InputTokens excludes the cache
// counters.
type anthropicUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

/*
	ANTHROPIC SSE STREAMING - WIRE TYPES

	Event lifecycle:
	  message_start → content_block_start → content_block_delta → content_block_stop →
	  message_delta → message_stop
*/

// anthropicStreamEvent is the envelope shared by every SSE payload. The Type
// field discriminates which optional fields are populated.
type anthropicStreamEvent struct {
	Type         string                `json:"type"`
	Message      *anthropicResponse    `json:"message,omitempty"`       // message_start
	Index        int                   `json:"index"`                   // content_block_*
	ContentBlock *responseContentBlock `json:"content_block,omitempty"` // content_block_start
	Delta        *streamDelta          `json:"delta,omitempty"`         // content_block_delta, message_delta
	Usage        *anthropicUsage       `json:"usage,omitempty"`         // message_delta
}

// streamDelta carries incremental content. The Type field discriminates:
//   - "text_delta": Text
//   - "thinking_delta": Thinking
//   - "input_json_delta": PartialJSON (tool call arguments)
//   - none, on message_delta: StopReason
type streamDelta struct {
	Type        string `json:"type,omitempty"`
	Text        string `json:"text,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}
