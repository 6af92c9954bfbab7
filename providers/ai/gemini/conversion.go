package gemini

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/leofalp/unillm/providers/ai"
)

var errNoCandidates = errors.New("response has no candidates")

// requestToGemini converts a generic request into a generateContentRequest.
func requestToGemini(request ai.ChatRequest, options ai.ChatOptions) generateContentRequest {
	req := generateContentRequest{
		Contents:         buildContents(request.Messages),
		GenerationConfig: buildGenerationConfig(options, request.ResponseFormat),
		Tools:            buildTools(request.Tools),
	}

	if request.System != "" {
		req.SystemInstruction = &systemInstruction{Parts: []part{{Text: request.System}}}
	}

	return req
}

// buildContents converts messages to Gemini contents.
// Role mapping: user -> user, assistant -> model, tool -> user with functionResponse
func buildContents(messages []ai.Message) []content {
	var contents []content

	// functionResponse is matched by name, which tool messages may omit
	toolNames := make(map[string]string)

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleAssistant:
			c := content{Role: "model"}
			if msg.Content != "" {
				c.Parts = append(c.Parts, part{Text: msg.Content})
			}
			for _, toolCall := range msg.ToolCalls {
				toolNames[toolCall.ID] = toolCall.Function.Name
				args := json.RawMessage(toolCall.Function.Arguments)
				if !json.Valid(args) {
					args = json.RawMessage("{}")
				}
				c.Parts = append(c.Parts, part{FunctionCall: &functionCall{Name: toolCall.Function.Name, Args: args}})
			}
			if len(c.Parts) > 0 {
				contents = append(contents, c)
			}

		case ai.RoleTool:
			name := msg.Name
			if name == "" {
				name = toolNames[msg.ToolCallID]
			}
			contents = append(contents, content{
				Role: "user",
				Parts: []part{{
					FunctionResponse: &functionResponse{Name: name, Response: toolResponseObject(msg.Content)},
				}},
			})

		default:
			// user, and system messages found mid-conversation
			contents = append(contents, content{Role: "user", Parts: []part{{Text: msg.Content}}})
		}
	}

	return contents
}

// toolResponseObject returns content as a JSON object. Anything else is
// wrapped as {"content": value}.
func toolResponseObject(content string) json.RawMessage {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}

	var value any = content
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		value = json.RawMessage(trimmed)
	}
	wrapped, err := json.Marshal(map[string]any{"content": value})
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return wrapped
}

// buildGenerationConfig maps options and the response format. It returns nil
// when nothing is set.
func buildGenerationConfig(options ai.ChatOptions, responseFormat *ai.ResponseFormat) *generationConfig {
	gc := &generationConfig{
		Temperature:     options.Temperature,
		TopP:            options.TopP,
		MaxOutputTokens: options.MaxTokens,
		StopSequences:   options.StopSequences,
		Seed:            options.Seed,
	}

	if budget := options.ReasoningEffort.Budget(); budget > 0 {
		gc.ThinkingConfig = &thinkingConfig{ThinkingBudget: &budget, IncludeThoughts: true}
	}

	if responseFormat != nil {
		switch responseFormat.Type {
		case ai.ResponseFormatJSONObject:
			gc.ResponseMimeType = "application/json"
		case ai.ResponseFormatJSONSchema:
			gc.ResponseMimeType = "application/json"
			gc.ResponseSchema = responseFormat.Schema
		}
	}

	if gc.Temperature == nil && gc.TopP == nil && gc.MaxOutputTokens == nil && len(gc.StopSequences) == 0 &&
		gc.Seed == nil && gc.ThinkingConfig == nil && gc.ResponseMimeType == "" {
		return nil
	}
	return gc
}

// buildTools puts every function into a single tool entry.
func buildTools(tools []ai.ToolDescription) []tool {
	if len(tools) == 0 {
		return nil
	}

	declarations := make([]functionDeclaration, 0, len(tools))
	for _, t := range tools {
		declarations = append(declarations, functionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return []tool{{FunctionDeclarations: declarations}}
}

// geminiToGeneric converts a generateContent response. Text parts are joined
// with newlines; thought parts go to Reasoning.
func geminiToGeneric(model ai.ModelIden, response generateContentResponse) (*ai.ChatResponse, error) {
	result := &ai.ChatResponse{
		ID:            response.ResponseID,
		Model:         model,
		ProviderModel: response.ModelVersion,
		Usage:         response.UsageMetadata.toUsage(),
	}

	if len(response.Candidates) == 0 {
		if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			result.FinishReason = ai.FinishReasonContentFilter
			return result, nil
		}
		return nil, &ai.DecodeError{Model: model, Err: errNoCandidates}
	}

	candidate := response.Candidates[0]
	result.FinishReason = mapFinishReason(candidate.FinishReason)

	if candidate.Content != nil {
		var textParts []string
		var reasoningParts []string

		for _, p := range candidate.Content.Parts {
			if p.Text != "" {
				if p.Thought {
					reasoningParts = append(reasoningParts, p.Text)
				} else {
					textParts = append(textParts, p.Text)
				}
			}
			if p.FunctionCall != nil {
				result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
					ID:       newToolCallID(),
					Type:     "function",
					Function: ai.ToolCallFunction{Name: p.FunctionCall.Name, Arguments: functionArguments(p.FunctionCall)},
				})
			}
		}

		result.Content = strings.Join(textParts, "\n")
		result.Reasoning = strings.Join(reasoningParts, "\n")
	}

	if len(result.ToolCalls) > 0 && result.FinishReason == ai.FinishReasonStop {
		result.FinishReason = ai.FinishReasonToolCalls
	}

	return result, nil
}

// newToolCallID generates an ID; Gemini function calls carry none.
func newToolCallID() string {
	return "call_" + uuid.NewString()
}

func functionArguments(call *functionCall) string {
	if len(call.Args) == 0 {
		return "{}"
	}
	return string(call.Args)
}

// toUsage maps usage metadata. Thought tokens are reported apart from
// candidate tokens and are folded into the completion count.
func (u *usageMetadata) toUsage() *ai.Usage {
	if u == nil {
		return nil
	}

	usage := (&ai.Usage{
		PromptTokens:        ai.Tokens(u.PromptTokenCount),
		CompletionTokens:    ai.Tokens(u.CandidatesTokenCount),
		TotalTokens:         ai.Tokens(u.TotalTokenCount),
		PromptTokensDetails: &ai.PromptTokensDetails{CachedTokens: ai.Tokens(u.CachedContentTokenCount)},
	}).Normalize()

	if u.ThoughtsTokenCount > 0 {
		if usage == nil {
			usage = &ai.Usage{}
		}
		usage.FoldReasoning(u.ThoughtsTokenCount)
	}
	return usage
}

// mapFinishReason converts a Gemini finishReason to the shared finish
// reasons. Unknown values pass through.
func mapFinishReason(reason string) string {
	switch reason {
	case "STOP":
		return ai.FinishReasonStop
	case "MAX_TOKENS":
		return ai.FinishReasonLength
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII", "IMAGE_SAFETY":
		return ai.FinishReasonContentFilter
	default:
		return reason
	}
}
