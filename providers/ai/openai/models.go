package openai

import (
	"encoding/json"

	"github.com/leofalp/unillm/providers/ai"
)

/*
	CHAT COMPLETIONS API - INPUT
*/

// chatCompletionRequest represents the /chat/completions request format
type chatCompletionRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	Temperature         *float64        `json:"temperature,omitempty"`
	TopP                *float64        `json:"top_p,omitempty"`
	MaxTokens           *int            `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int            `json:"max_completion_tokens,omitempty"`
	Stop                []string        `json:"stop,omitempty"`
	Seed                *int64          `json:"seed,omitempty"`
	ReasoningEffort     string          `json:"reasoning_effort,omitempty"`
	Reasoning           *reasoningParam `json:"reasoning,omitempty"`
	Stream              bool            `json:"stream,omitempty"`
	StreamOptions       *streamOptions  `json:"stream_options,omitempty"`

	Tools          []chatTool          `json:"tools,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"` // system, user, assistant, tool
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"` // For role=tool
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`   // For role=assistant
}

type chatTool struct {
	Type     string       `json:"type"` // "function"
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // "function"
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatResponseFormat struct {
	Type       string          `json:"type"` // "text", "json_object", "json_schema"
	JSONSchema *chatJSONSchema `json:"json_schema,omitempty"`
}

type chatJSONSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict,omitempty"`
}

// reasoningParam is OpenRouter's unified reasoning switch.
type reasoningParam struct {
	Effort string `json:"effort"`
}

// streamOptions configures streaming behavior in the request.
type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Role             string         `json:"role"`
	Content          *string        `json:"content"`
	ReasoningContent string         `json:"reasoning_content,omitempty"` // DeepSeek, xAI, Zhipu
	Reasoning        string         `json:"reasoning,omitempty"`         // OpenRouter, Groq
	ToolCalls        []chatToolCall `json:"tool_calls,omitempty"`
	Refusal          string         `json:"refusal,omitempty"`
}

// chatUsage is the OpenAI usage block plus the cache counters DeepSeek
// reports outside prompt_tokens_details.
type chatUsage struct {
	ai.Usage
	PromptCacheHitTokens *int `json:"prompt_cache_hit_tokens,omitempty"`
}

func (u *chatUsage) toUsage() *ai.Usage {
	if u == nil {
		return nil
	}
	usage := u.Usage
	if u.PromptCacheHitTokens != nil && (usage.PromptTokensDetails == nil || usage.PromptTokensDetails.CachedTokens == nil) {
		details := ai.PromptTokensDetails{}
		if usage.PromptTokensDetails != nil {
			details = *usage.PromptTokensDetails
		}
		details.CachedTokens = u.PromptCacheHitTokens
		usage.PromptTokensDetails = &details
	}
	return usage.Normalize()
}

/*
	CHAT COMPLETIONS STREAMING API
*/

// chatCompletionStreamChunk represents a single SSE chunk from the streaming
// chat completions endpoint.
type chatCompletionStreamChunk struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []streamChoice `json:"choices"`
	Usage   *chatUsage     `json:"usage,omitempty"` // final chunk when include_usage is set
	XGroq   *struct {
		Usage *chatUsage `json:"usage,omitempty"`
	} `json:"x_groq,omitempty"`
}

// streamChoice uses Delta instead of Message.
type streamChoice struct {
	Index        int         `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"` // nil until the final chunk for this choice
}

// streamDelta carries the incremental content for a streaming chunk.
// Every field is optional.
type streamDelta struct {
	Content          *string              `json:"content,omitempty"`
	ReasoningContent *string              `json:"reasoning_content,omitempty"`
	Reasoning        *string              `json:"reasoning,omitempty"`
	ToolCalls        []streamToolCallPart `json:"tool_calls,omitempty"`
}

// streamToolCallPart is an incremental tool call delta. The first part for a
// call carries the ID and function name; later parts carry argument fragments.
type streamToolCallPart struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}

func (d streamDelta) reasoningText() string {
	if d.ReasoningContent != nil && *d.ReasoningContent != "" {
		return *d.ReasoningContent
	}
	if d.Reasoning != nil {
		return *d.Reasoning
	}
	return ""
}
