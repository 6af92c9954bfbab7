package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/tidwall/gjson"
)

/*
	REQUEST
*/

// requestToChatCompletion converts a generic request to the chat completions
// format. Options the host cannot take are reported as dropped.
func requestToChatCompletion(model string, request ai.ChatRequest, options ai.ChatOptions, caps Capabilities, stream bool) (chatCompletionRequest, []string) {
	var dropped ai.DroppedOptions

	req := chatCompletionRequest{
		Model:       model,
		Messages:    messagesToChat(request),
		Temperature: options.Temperature,
		TopP:        options.TopP,
		Stop:        options.StopSequences,
	}

	if options.MaxTokens != nil {
		if caps.MaxTokensField == "max_completion_tokens" {
			req.MaxCompletionTokens = options.MaxTokens
		} else {
			req.MaxTokens = options.MaxTokens
		}
	}

	if caps.SupportsSeed {
		req.Seed = options.Seed
	} else {
		dropped.Drop("seed", options.Seed != nil)
	}

	if effort := options.ReasoningEffort; effort != "" {
		switch caps.ReasoningEffort {
		case ReasoningEffortField:
			req.ReasoningEffort = string(effort)
		case ReasoningObject:
			req.Reasoning = &reasoningParam{Effort: string(effort)}
		default:
			dropped.Drop("reasoning_effort", true)
		}
	}

	for _, tool := range request.Tools {
		req.Tools = append(req.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	if format := request.ResponseFormat; format != nil {
		if caps.SupportsResponseFormat {
			req.ResponseFormat = responseFormatToChat(format)
		} else {
			dropped.Drop("response_format", true)
		}
	}

	if stream {
		req.Stream = true
		if caps.StreamUsage {
			req.StreamOptions = &streamOptions{IncludeUsage: true}
		}
	}

	return req, dropped
}

func messagesToChat(request ai.ChatRequest) []chatMessage {
	messages := make([]chatMessage, 0, len(request.Messages)+1)
	if request.System != "" {
		messages = append(messages, chatMessage{Role: string(ai.RoleSystem), Content: request.System})
	}

	for _, msg := range request.Messages {
		chatMsg := chatMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		if msg.Role != ai.RoleTool {
			chatMsg.Name = msg.Name
		}
		for _, tc := range msg.ToolCalls {
			toolCall := chatToolCall{ID: tc.ID, Type: "function"}
			toolCall.Function.Name = tc.Function.Name
			toolCall.Function.Arguments = tc.Function.Arguments
			chatMsg.ToolCalls = append(chatMsg.ToolCalls, toolCall)
		}
		messages = append(messages, chatMsg)
	}
	return messages
}

func responseFormatToChat(format *ai.ResponseFormat) *chatResponseFormat {
	if format.Type != ai.ResponseFormatJSONSchema || len(format.Schema) == 0 {
		return &chatResponseFormat{Type: string(format.Type)}
	}
	name := format.Name
	if name == "" {
		name = "response_schema"
	}
	return &chatResponseFormat{
		Type:       string(ai.ResponseFormatJSONSchema),
		JSONSchema: &chatJSONSchema{Name: name, Schema: format.Schema, Strict: format.Strict},
	}
}

/*
	RESPONSE
*/

// chatCompletionToGeneric converts the first choice of a response. Inline
// think markup is moved to Reasoning when splitThink is set.
func chatCompletionToGeneric(model ai.ModelIden, body []byte, splitThink bool) (*ai.ChatResponse, error) {
	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ai.DecodeError{Model: model, Fragment: string(body), Err: err}
	}

	if len(resp.Choices) == 0 {
		// some hosts answer 200 with an error payload
		if gjson.GetBytes(body, "error").Exists() {
			return nil, &ai.ProviderError{Model: model, StatusCode: 200, Body: string(body)}
		}
		return nil, &ai.DecodeError{Model: model, Fragment: string(body), Err: fmt.Errorf("response has no choices")}
	}

	choice := resp.Choices[0]
	message := choice.Message

	content := ""
	if message.Content != nil {
		content = *message.Content
	}
	reasoning := message.ReasoningContent
	if reasoning == "" {
		reasoning = message.Reasoning
	}
	if splitThink && strings.Contains(content, "<think>") {
		var inline string
		content, inline = ai.SplitThinkTags(content)
		reasoning = joinReasoning(reasoning, inline)
	}
	if content == "" && message.Refusal != "" {
		content = message.Refusal
	}

	response := &ai.ChatResponse{
		ID:            resp.ID,
		Model:         model,
		ProviderModel: resp.Model,
		Content:       content,
		Reasoning:     reasoning,
		FinishReason:  mapFinishReason(choice.FinishReason),
		Usage:         resp.Usage.toUsage(),
	}
	for _, tc := range message.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, ai.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: ai.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return response, nil
}

func joinReasoning(first, second string) string {
	switch {
	case first == "":
		return second
	case second == "":
		return first
	default:
		return first + "\n" + second
	}
}

// mapFinishReason folds host-specific values onto the shared ones.
func mapFinishReason(reason string) string {
	switch reason {
	case "function_call":
		return ai.FinishReasonToolCalls
	case "sensitive": // Zhipu
		return ai.FinishReasonContentFilter
	default:
		return reason
	}
}
