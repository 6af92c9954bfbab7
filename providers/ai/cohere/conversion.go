package cohere

import (
	"strings"

	"github.com/leofalp/unillm/providers/ai"
)

// requestToCohere converts a generic request into a v2 chat request.
func requestToCohere(model string, request ai.ChatRequest, options ai.ChatOptions, stream bool) chatRequest {
	req := chatRequest{
		Model:         model,
		Messages:      buildMessages(request.System, request.Messages),
		Tools:         buildTools(request.Tools),
		Stream:        stream,
		Temperature:   options.Temperature,
		MaxTokens:     options.MaxTokens,
		P:             options.TopP,
		StopSequences: options.StopSequences,
		Seed:          options.Seed,
	}

	if budget := options.ReasoningEffort.Budget(); budget > 0 {
		req.Thinking = &thinking{Type: "enabled", TokenBudget: budget}
	}

	if format := request.ResponseFormat; format != nil {
		switch format.Type {
		case ai.ResponseFormatJSONObject:
			req.ResponseFormat = &responseFormat{Type: "json_object"}
		case ai.ResponseFormatJSONSchema:
			req.ResponseFormat = &responseFormat{Type: "json_object", JSONSchema: format.Schema}
		}
	}

	return req
}

// buildMessages puts the system prompt first. Roles map one to one.
func buildMessages(system string, messages []ai.Message) []chatMessage {
	result := make([]chatMessage, 0, len(messages)+1)
	if system != "" {
		result = append(result, chatMessage{Role: "system", Content: system})
	}

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleAssistant:
			assistantMsg := chatMessage{Role: "assistant", Content: msg.Content}
			for _, toolCall := range msg.ToolCalls {
				assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, chatToolCall{
					ID:       toolCall.ID,
					Type:     "function",
					Function: chatToolFunction{Name: toolCall.Function.Name, Arguments: toolCall.Function.Arguments},
				})
			}
			// assistant turns that call tools must carry a plan or content
			if len(assistantMsg.ToolCalls) > 0 && assistantMsg.Content == "" {
				assistantMsg.ToolPlan = msg.Reasoning
			}
			result = append(result, assistantMsg)
		case ai.RoleTool:
			result = append(result, chatMessage{Role: "tool", ToolCallID: msg.ToolCallID, Content: msg.Content})
		default:
			result = append(result, chatMessage{Role: string(msg.Role), Content: msg.Content})
		}
	}

	return result
}

func buildTools(tools []ai.ToolDescription) []chatTool {
	var result []chatTool
	for _, tool := range tools {
		result = append(result, chatTool{
			Type:     "function",
			Function: functionSpec{Name: tool.Name, Description: tool.Description, Parameters: tool.Parameters},
		})
	}
	return result
}

// cohereToGeneric converts a v2 chat response. The tool plan is reported as
// reasoning when the model produced no thinking blocks.
func cohereToGeneric(model ai.ModelIden, response chatResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		ID:           response.ID,
		Model:        model,
		FinishReason: mapFinishReason(response.FinishReason),
		Usage:        response.Usage.toUsage(),
	}

	var textParts []string
	var reasoningParts []string
	for _, block := range response.Message.Content {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "thinking":
			reasoningParts = append(reasoningParts, block.Thinking)
		}
	}
	if len(reasoningParts) == 0 && response.Message.ToolPlan != "" {
		reasoningParts = append(reasoningParts, response.Message.ToolPlan)
	}
	result.Content = strings.Join(textParts, "\n")
	result.Reasoning = strings.Join(reasoningParts, "\n")

	for _, toolCall := range response.Message.ToolCalls {
		arguments := toolCall.Function.Arguments
		if arguments == "" {
			arguments = "{}"
		}
		result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
			ID:       toolCall.ID,
			Type:     "function",
			Function: ai.ToolCallFunction{Name: toolCall.Function.Name, Arguments: arguments},
		})
	}

	return result
}

// toUsage prefers actual token counts over billed units.
func (u *usage) toUsage() *ai.Usage {
	if u == nil {
		return nil
	}
	counts := u.Tokens
	if counts == nil {
		counts = u.BilledUnits
	}
	if counts == nil {
		return nil
	}

	input, output := int(counts.InputTokens), int(counts.OutputTokens)
	return (&ai.Usage{
		PromptTokens:        ai.Tokens(input),
		CompletionTokens:    ai.Tokens(output),
		TotalTokens:         ai.Tokens(input + output),
		PromptTokensDetails: &ai.PromptTokensDetails{CachedTokens: ai.Tokens(u.CachedTokens)},
	}).Normalize()
}

// mapFinishReason converts a v2 finish_reason to the shared finish reasons.
// Unknown values pass through lowercased.
func mapFinishReason(reason string) string {
	switch reason {
	case "COMPLETE", "STOP_SEQUENCE":
		return ai.FinishReasonStop
	case "MAX_TOKENS":
		return ai.FinishReasonLength
	case "TOOL_CALL":
		return ai.FinishReasonToolCalls
	default:
		return strings.ToLower(reason)
	}
}
