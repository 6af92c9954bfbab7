package cohere

import "encoding/json"

/*
	COHERE V2 CHAT - REQUEST TYPES
*/

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Tools          []chatTool      `json:"tools,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	P              *float64        `json:"p,omitempty"`
	StopSequences  []string        `json:"stop_sequences,omitempty"`
	Seed           *int64          `json:"seed,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Thinking       *thinking       `json:"thinking,omitempty"`
}

// chatMessage is a v2 message. Content is a plain string on every role this
// adapter sends.
type chatMessage struct {
	Role       string         `json:"role"` // system, user, assistant, tool
	Content    string         `json:"content,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolPlan   string         `json:"tool_plan,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function chatToolFunction `json:"function"`
}

type chatToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string       `json:"type"` // "function"
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type responseFormat struct {
	Type       string          `json:"type"` // "text" or "json_object"
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

type thinking struct {
	Type        string `json:"type"` // "enabled"
	TokenBudget int    `json:"token_budget,omitempty"`
}

/*
	COHERE V2 CHAT - RESPONSE TYPES
*/

type chatResponse struct {
	ID           string          `json:"id"`
	FinishReason string          `json:"finish_reason"`
	Message      responseMessage `json:"message"`
	Usage        *usage          `json:"usage,omitempty"`
}

type responseMessage struct {
	Role      string         `json:"role"`
	Content   []contentBlock `json:"content,omitempty"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
	ToolPlan  string         `json:"tool_plan,omitempty"`
}

type contentBlock struct {
	Type     string `json:"type"` // "text" or "thinking"
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`
}

// usage carries both billed units and actual token counts; tokens is
// preferred.
type usage struct {
	BilledUnits  *tokenCounts `json:"billed_units,omitempty"`
	Tokens       *tokenCounts `json:"tokens,omitempty"`
	CachedTokens int          `json:"cached_tokens,omitempty"`
}

type tokenCounts struct {
	InputTokens  float64 `json:"input_tokens"`
	OutputTokens float64 `json:"output_tokens"`
}
