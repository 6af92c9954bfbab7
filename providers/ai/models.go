package ai

import (
	"encoding/json"
	"maps"
	"slices"
)

/*
	##### REQUEST #####
*/

// ChatRequest is the provider-agnostic request shape. Messages are sent in
// order; the system prompt is kept apart because several providers carry it
// outside the message list.
type ChatRequest struct {
	System         string            `json:"system,omitempty"`
	Messages       []Message         `json:"messages"`
	Tools          []ToolDescription `json:"tools,omitempty"`
	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`
}

// ToolDescription declares a function the model may call. Parameters is a
// JSON schema passed through verbatim.
type ToolDescription struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ResponseFormatType selects structured output.
type ResponseFormatType string

const (
	ResponseFormatText       ResponseFormatType = "text"
	ResponseFormatJSONObject ResponseFormatType = "json_object"
	ResponseFormatJSONSchema ResponseFormatType = "json_schema"
)

// ResponseFormat requests JSON output, optionally constrained by a schema.
type ResponseFormat struct {
	Type   ResponseFormatType `json:"type"`
	Name   string             `json:"name,omitempty"`   // schema name, required by some providers
	Schema json.RawMessage    `json:"schema,omitempty"` // only with ResponseFormatJSONSchema
	Strict bool               `json:"strict,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	// Tool calling fields
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For role=assistant requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // For role=tool, links to the tool call being responded to
	Name       string     `json:"name,omitempty"`         // For role=tool, name of the tool that generated this response

	Reasoning string `json:"reasoning,omitempty"` // Prior assistant reasoning, replayed where the provider accepts it
}

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// NewUserMessage is a shorthand for a user text message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage is a shorthand for an assistant text message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage answers the tool call identified by callID.
func NewToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Name: name, Content: content}
}

/*
	##### OPTIONS #####
*/

// ReasoningEffort asks reasoning-capable models for more or less thinking.
type ReasoningEffort string

const (
	ReasoningMinimal ReasoningEffort = "minimal"
	ReasoningLow     ReasoningEffort = "low"
	ReasoningMedium  ReasoningEffort = "medium"
	ReasoningHigh    ReasoningEffort = "high"
)

// Budget maps the effort to a thinking-token budget for providers that take a
// number instead of a level.
func (e ReasoningEffort) Budget() int {
	switch e {
	case ReasoningMinimal:
		return 512
	case ReasoningLow:
		return 1024
	case ReasoningMedium:
		return 8000
	case ReasoningHigh:
		return 24000
	default:
		return 0
	}
}

// ChatOptions are the per-call knobs. Nil pointers mean "not set" so client
// defaults and per-call values can be merged field by field.
type ChatOptions struct {
	Temperature     *float64        `json:"temperature,omitempty"`
	MaxTokens       *int            `json:"max_tokens,omitempty"`
	TopP            *float64        `json:"top_p,omitempty"`
	StopSequences   []string        `json:"stop_sequences,omitempty"`
	Seed            *int64          `json:"seed,omitempty"`
	ReasoningEffort ReasoningEffort `json:"reasoning_effort,omitempty"`

	// Stream capture; see the Captures* accessors for defaults.
	CaptureUsage            *bool `json:"capture_usage,omitempty"`
	CaptureContent          *bool `json:"capture_content,omitempty"`
	CaptureReasoningContent *bool `json:"capture_reasoning_content,omitempty"`
	CaptureToolCalls        *bool `json:"capture_tool_calls,omitempty"`

	// NormalizeReasoningContent splits inline <think> markup into the
	// reasoning channel. Nil leaves the adapter default.
	NormalizeReasoningContent *bool `json:"normalize_reasoning_content,omitempty"`

	ExtraHeaders []Header       `json:"extra_headers,omitempty"`
	ExtraBody    map[string]any `json:"extra_body,omitempty"`
}

// Merge returns a copy of o with every field set in override taking
// precedence. Extra headers are appended and extra body keys are merged.
func (o ChatOptions) Merge(override ChatOptions) ChatOptions {
	out := o
	if override.Temperature != nil {
		out.Temperature = override.Temperature
	}
	if override.MaxTokens != nil {
		out.MaxTokens = override.MaxTokens
	}
	if override.TopP != nil {
		out.TopP = override.TopP
	}
	if override.StopSequences != nil {
		out.StopSequences = slices.Clone(override.StopSequences)
	}
	if override.Seed != nil {
		out.Seed = override.Seed
	}
	if override.ReasoningEffort != "" {
		out.ReasoningEffort = override.ReasoningEffort
	}
	if override.CaptureUsage != nil {
		out.CaptureUsage = override.CaptureUsage
	}
	if override.CaptureContent != nil {
		out.CaptureContent = override.CaptureContent
	}
	if override.CaptureReasoningContent != nil {
		out.CaptureReasoningContent = override.CaptureReasoningContent
	}
	if override.CaptureToolCalls != nil {
		out.CaptureToolCalls = override.CaptureToolCalls
	}
	if override.NormalizeReasoningContent != nil {
		out.NormalizeReasoningContent = override.NormalizeReasoningContent
	}
	if len(override.ExtraHeaders) > 0 {
		out.ExtraHeaders = append(slices.Clone(o.ExtraHeaders), override.ExtraHeaders...)
	}
	if len(override.ExtraBody) > 0 {
		merged := maps.Clone(o.ExtraBody)
		if merged == nil {
			merged = make(map[string]any, len(override.ExtraBody))
		}
		maps.Copy(merged, override.ExtraBody)
		out.ExtraBody = merged
	}
	return out
}

// CapturesUsage reports whether the stream End carries usage. Defaults to true.
func (o ChatOptions) CapturesUsage() bool { return boolOr(o.CaptureUsage, true) }

// CapturesContent reports whether the stream End carries the full content.
func (o ChatOptions) CapturesContent() bool { return boolOr(o.CaptureContent, false) }

// CapturesReasoning reports whether the stream End carries the full reasoning.
func (o ChatOptions) CapturesReasoning() bool { return boolOr(o.CaptureReasoningContent, false) }

// CapturesToolCalls reports whether the stream End carries assembled tool calls.
func (o ChatOptions) CapturesToolCalls() bool { return boolOr(o.CaptureToolCalls, false) }

// NormalizesReasoning resolves NormalizeReasoningContent against an adapter
// default.
func (o ChatOptions) NormalizesReasoning(adapterDefault bool) bool {
	return boolOr(o.NormalizeReasoningContent, adapterDefault)
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

/*
	##### RESPONSE #####
*/

// ChatResponse is the normalized result of a non-streaming call. Only the
// first choice of the provider response is represented.
type ChatResponse struct {
	ID            string     `json:"id,omitempty"`
	Model         ModelIden  `json:"model"`                    // model the call was resolved to
	ProviderModel string     `json:"provider_model,omitempty"` // model name echoed by the provider
	Content       string     `json:"content"`
	Reasoning     string     `json:"reasoning,omitempty"`
	ToolCalls     []ToolCall `json:"tool_calls,omitempty"`
	FinishReason  string     `json:"finish_reason,omitempty"`
	Usage         *Usage     `json:"usage,omitempty"`
}

// ToolCall represents a function/tool call request from the LLM
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// Finish reasons shared by all adapters. Provider-specific values are mapped
// onto these where an equivalent exists and passed through otherwise.
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonContentFilter = "content_filter"
)
