package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/unillm/providers/ai"
)

const (
	// defaultMaxTokens is sent when the caller sets no limit; the API
	// rejects requests without max_tokens.
	defaultMaxTokens = 4096

	// minThinkingBudget is the smallest budget the API accepts.
	minThinkingBudget = 1024
)

// requestToAnthropic converts a generic request into an anthropicRequest.
// Options the Messages API cannot take are reported as dropped.
func requestToAnthropic(model string, request ai.ChatRequest, options ai.ChatOptions, capabilities Capabilities, stream bool) (anthropicRequest, []string, error) {
	var dropped ai.DroppedOptions

	req := anthropicRequest{
		Model:         model,
		Messages:      buildMessages(request.Messages),
		TopP:          options.TopP,
		StopSequences: options.StopSequences,
		Tools:         buildAnthropicTools(request.Tools, capabilities.PromptCaching),
		Stream:        stream,
	}

	// --- System prompt ---
	// The block form is needed to attach cache_control.
	if request.System != "" {
		var system any = request.System
		if capabilities.PromptCaching {
			system = []anthropicContentBlock{{
				Type:         "text",
				Text:         request.System,
				CacheControl: &anthropicCacheControl{Type: "ephemeral"},
			}}
		}
		systemBytes, err := json.Marshal(system)
		if err != nil {
			return anthropicRequest{}, nil, fmt.Errorf("failed to marshal system prompt: %w", err)
		}
		req.System = systemBytes
	}

	// --- Thinking ---
	req.MaxTokens = defaultMaxTokens
	if budget := options.ReasoningEffort.Budget(); budget > 0 {
		budget = max(budget, minThinkingBudget)
		req.Thinking = &anthropicThinkingConfig{Type: "enabled", BudgetTokens: budget}
		// max_tokens includes the thinking budget
		req.MaxTokens = budget + defaultMaxTokens
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}

	// temperature must stay at its default while thinking
	if req.Thinking == nil {
		req.Temperature = options.Temperature
	} else {
		dropped.Drop("temperature", options.Temperature != nil)
	}

	dropped.Drop("seed", options.Seed != nil)
	dropped.Drop("response_format", request.ResponseFormat != nil)

	return req, dropped, nil
}

// buildMessages converts messages into Anthropic turns.
//
// Anthropic requires strictly alternating user/assistant turns. Consecutive
// tool-result messages are therefore merged into a single user message with
// multiple tool_result blocks.
func buildMessages(messages []ai.Message) []anthropicMessage {
	var result []anthropicMessage

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleAssistant:
			assistantMsg := anthropicMessage{Role: "assistant"}
			if msg.Content != "" {
				assistantMsg.Content = append(assistantMsg.Content, anthropicContentBlock{Type: "text", Text: msg.Content})
			}
			for _, toolCall := range msg.ToolCalls {
				input := json.RawMessage(toolCall.Function.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				assistantMsg.Content = append(assistantMsg.Content, anthropicContentBlock{
					Type:  "tool_use",
					ID:    toolCall.ID,
					Name:  toolCall.Function.Name,
					Input: input,
				})
			}
			if len(assistantMsg.Content) > 0 {
				result = append(result, assistantMsg)
			}

		case ai.RoleTool:
			toolResultBlock := anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: msg.ToolCallID,
				Content:   msg.Content,
			}
			if len(result) > 0 && isAllToolResults(result[len(result)-1]) {
				last := &result[len(result)-1]
				last.Content = append(last.Content, toolResultBlock)
			} else {
				result = append(result, anthropicMessage{
					Role:    "user",
					Content: []anthropicContentBlock{toolResultBlock},
				})
			}

		default:
			// user, and system messages found mid-conversation
			result = append(result, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: msg.Content}},
			})
		}
	}

	return result
}

// isAllToolResults reports whether msg is a user turn made only of tool_result
// blocks.
func isAllToolResults(msg anthropicMessage) bool {
	if msg.Role != "user" || len(msg.Content) == 0 {
		return false
	}
	for _, block := range msg.Content {
		if block.Type != "tool_result" {
			return false
		}
	}
	return true
}

// buildAnthropicTools converts tool descriptions. With promptCaching,
// cache_control is attached to the last tool so the whole list is cached.
func buildAnthropicTools(tools []ai.ToolDescription, promptCaching bool) []anthropicTool {
	var result []anthropicTool

	for _, tool := range tools {
		schema := tool.Parameters
		if len(schema) == 0 {
			// input_schema is mandatory
			schema = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		result = append(result, anthropicTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		})
	}

	if promptCaching && len(result) > 0 {
		result[len(result)-1].CacheControl = &anthropicCacheControl{Type: "ephemeral"}
	}

	return result
}

// anthropicToGeneric converts a Messages API response. Text blocks are joined
// with newlines into Content, thinking blocks into Reasoning.
func anthropicToGeneric(model ai.ModelIden, response anthropicResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		ID:            response.ID,
		Model:         model,
		ProviderModel: response.Model,
		FinishReason:  mapStopReason(response.StopReason),
		Usage:         response.Usage.toUsage(),
	}

	var textParts []string
	var reasoningParts []string

	for _, block := range response.Content {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "thinking":
			reasoningParts = append(reasoningParts, block.Thinking)
		case "tool_use":
			arguments := string(block.Input)
			if arguments == "" {
				arguments = "{}"
			}
			result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
				ID:       block.ID,
				Type:     "function",
				Function: ai.ToolCallFunction{Name: block.Name, Arguments: arguments},
			})
		}
	}

	result.Content = strings.Join(textParts, "\n")
	result.Reasoning = strings.Join(reasoningParts, "\n")
	return result
}

// toUsage maps Anthropic counters. Prompt tokens include the cache counters,
// which are also reported as prompt details.
func (u anthropicUsage) toUsage() *ai.Usage {
	prompt := u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens
	usage := &ai.Usage{
		PromptTokens:     ai.Tokens(prompt),
		CompletionTokens: ai.Tokens(u.OutputTokens),
		TotalTokens:      ai.Tokens(prompt + u.OutputTokens),
		PromptTokensDetails: &ai.PromptTokensDetails{
			CacheCreationTokens: ai.Tokens(u.CacheCreationInputTokens),
			CachedTokens:        ai.Tokens(u.CacheReadInputTokens),
		},
	}
	return usage.Normalize()
}

// mapStopReason converts an Anthropic stop_reason to the shared finish
// reasons. Unknown values pass through.
func mapStopReason(stopReason string) string {
	switch stopReason {
	case "end_turn", "stop_sequence":
		return ai.FinishReasonStop
	case "tool_use":
		return ai.FinishReasonToolCalls
	case "max_tokens":
		return ai.FinishReasonLength
	case "refusal":
		return ai.FinishReasonContentFilter
	default:
		return stopReason
	}
}
