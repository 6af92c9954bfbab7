package ollama

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/leofalp/unillm/providers/ai"
)

var jsonFormat = json.RawMessage(`"json"`)

// requestToOllama converts a generic request into an /api/chat request.
func requestToOllama(model string, request ai.ChatRequest, options ai.ChatOptions, stream bool) chatRequest {
	req := chatRequest{
		Model:    model,
		Messages: buildMessages(request.System, request.Messages),
		Tools:    buildTools(request.Tools),
		Stream:   stream,
	}

	opts := modelOptions{
		Temperature: options.Temperature,
		TopP:        options.TopP,
		NumPredict:  options.MaxTokens,
		Stop:        options.StopSequences,
		Seed:        options.Seed,
	}
	if opts.Temperature != nil || opts.TopP != nil || opts.NumPredict != nil || len(opts.Stop) > 0 || opts.Seed != nil {
		req.Options = &opts
	}

	if options.ReasoningEffort != "" {
		think := true
		req.Think = &think
	}

	if format := request.ResponseFormat; format != nil {
		switch format.Type {
		case ai.ResponseFormatJSONObject:
			req.Format = jsonFormat
		case ai.ResponseFormatJSONSchema:
			req.Format = format.Schema
			if len(req.Format) == 0 {
				req.Format = jsonFormat
			}
		}
	}

	return req
}

func buildMessages(system string, messages []ai.Message) []chatMessage {
	result := make([]chatMessage, 0, len(messages)+1)
	if system != "" {
		result = append(result, chatMessage{Role: "system", Content: system})
	}

	toolNames := make(map[string]string)

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleAssistant:
			assistantMsg := chatMessage{Role: "assistant", Content: msg.Content, Thinking: msg.Reasoning}
			for _, toolCall := range msg.ToolCalls {
				toolNames[toolCall.ID] = toolCall.Function.Name
				arguments := json.RawMessage(toolCall.Function.Arguments)
				if !json.Valid(arguments) {
					arguments = json.RawMessage("{}")
				}
				assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, chatToolCall{
					Function: chatToolFunction{Name: toolCall.Function.Name, Arguments: arguments},
				})
			}
			result = append(result, assistantMsg)
		case ai.RoleTool:
			name := msg.Name
			if name == "" {
				name = toolNames[msg.ToolCallID]
			}
			result = append(result, chatMessage{Role: "tool", Content: msg.Content, ToolName: name})
		default:
			result = append(result, chatMessage{Role: string(msg.Role), Content: msg.Content})
		}
	}

	return result
}

func buildTools(tools []ai.ToolDescription) []chatTool {
	var result []chatTool
	for _, tool := range tools {
		parameters := tool.Parameters
		if len(parameters) == 0 {
			parameters = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		result = append(result, chatTool{
			Type:     "function",
			Function: functionSpec{Name: tool.Name, Description: tool.Description, Parameters: parameters},
		})
	}
	return result
}

// ollamaToGeneric converts a non-streaming response. With splitThink, inline
// <think> markup in the content is moved to Reasoning.
func ollamaToGeneric(model ai.ModelIden, response chatResponse, splitThink bool) *ai.ChatResponse {
	result := &ai.ChatResponse{
		Model:         model,
		ProviderModel: response.Model,
		Content:       response.Message.Content,
		Reasoning:     response.Message.Thinking,
		FinishReason:  mapDoneReason(response.DoneReason),
		Usage:         response.toUsage(),
	}

	if splitThink {
		content, reasoning := ai.SplitThinkTags(result.Content)
		result.Content = content
		if reasoning != "" {
			if result.Reasoning != "" {
				result.Reasoning += "\n"
			}
			result.Reasoning += reasoning
		}
	}

	for _, toolCall := range response.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
			ID:       newToolCallID(),
			Type:     "function",
			Function: ai.ToolCallFunction{Name: toolCall.Function.Name, Arguments: toolArguments(toolCall)},
		})
	}
	if len(result.ToolCalls) > 0 && result.FinishReason == ai.FinishReasonStop {
		result.FinishReason = ai.FinishReasonToolCalls
	}

	return result
}

// newToolCallID generates an ID; Ollama tool calls carry none.
func newToolCallID() string {
	return "call_" + uuid.NewString()
}

func toolArguments(call chatToolCall) string {
	if len(call.Function.Arguments) == 0 || string(call.Function.Arguments) == "null" {
		return "{}"
	}
	return string(call.Function.Arguments)
}

// toUsage maps the evaluation counters reported on the final line.
func (r chatResponse) toUsage() *ai.Usage {
	return (&ai.Usage{
		PromptTokens:     ai.Tokens(r.PromptEvalCount),
		CompletionTokens: ai.Tokens(r.EvalCount),
		TotalTokens:      ai.Tokens(r.PromptEvalCount + r.EvalCount),
	}).Normalize()
}

// mapDoneReason converts done_reason. "load" and "unload" come from model
// management requests and pass through like any unknown value.
func mapDoneReason(reason string) string {
	switch reason {
	case "stop":
		return ai.FinishReasonStop
	case "length":
		return ai.FinishReasonLength
	default:
		return reason
	}
}
