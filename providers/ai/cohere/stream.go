package cohere

import (
	"encoding/json"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/tidwall/gjson"
)

// streamDecoder maps v2 stream events. Events are small and differently
// shaped, so fields are read with gjson paths instead of full structs.
//
// Cohere SSE lifecycle:
//
//	message-start → content-start → content-delta(s) → content-end →
//	tool-plan-delta(s) → tool-call-start → tool-call-delta(s) →
//	tool-call-end → message-end
type streamDecoder struct {
	model ai.ModelIden
}

func (d *streamDecoder) Framing() ai.Framing { return ai.FramingSSE }

func (d *streamDecoder) Decode(frame ai.Frame) (ai.FrameResult, error) {
	if !gjson.Valid(frame.Data) {
		return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: ai.ErrInvalidJSON}
	}
	data := gjson.Parse(frame.Data)

	eventType := frame.Event
	if eventType == "" {
		eventType = data.Get("type").String()
	}

	var result ai.FrameResult

	switch eventType {
	case "message-start":
		result.ResponseID = data.Get("id").String()

	case "content-delta":
		if text := data.Get("delta.message.content.text").String(); text != "" {
			result.Chunks = append(result.Chunks, ai.StreamEvent{Type: ai.StreamEventContent, Content: text})
		}
		if thought := data.Get("delta.message.content.thinking").String(); thought != "" {
			result.Chunks = append(result.Chunks, ai.StreamEvent{Type: ai.StreamEventReasoning, Reasoning: thought})
		}

	case "tool-plan-delta":
		if plan := data.Get("delta.message.tool_plan").String(); plan != "" {
			result.Chunks = append(result.Chunks, ai.StreamEvent{Type: ai.StreamEventReasoning, Reasoning: plan})
		}

	case "tool-call-start":
		call := data.Get("delta.message.tool_calls")
		result.Chunks = append(result.Chunks, ai.StreamEvent{
			Type: ai.StreamEventToolCall,
			ToolCall: &ai.ToolCallDelta{
				Index:     int(data.Get("index").Int()),
				ID:        call.Get("id").String(),
				Name:      call.Get("function.name").String(),
				Arguments: call.Get("function.arguments").String(),
			},
		})

	case "tool-call-delta":
		if arguments := data.Get("delta.message.tool_calls.function.arguments").String(); arguments != "" {
			result.Chunks = append(result.Chunks, ai.StreamEvent{
				Type:     ai.StreamEventToolCall,
				ToolCall: &ai.ToolCallDelta{Index: int(data.Get("index").Int()), Arguments: arguments},
			})
		}

	case "message-end":
		// a failed generation ends with finish_reason ERROR and an error message
		if data.Get("delta.error").Exists() {
			return ai.FrameResult{}, &ai.ProviderError{Model: d.model, Body: frame.Data}
		}
		result.Done = true
		result.FinishReason = mapFinishReason(data.Get("delta.finish_reason").String())
		if raw := data.Get("delta.usage"); raw.Exists() {
			var u usage
			if err := json.Unmarshal([]byte(raw.Raw), &u); err != nil {
				return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: err}
			}
			result.Usage = u.toUsage()
		}

	case "error":
		return ai.FrameResult{}, &ai.ProviderError{Model: d.model, Body: frame.Data}
	}

	if err := ai.ValidateToolCallIndices(result.Chunks); err != nil {
		return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: err}
	}
	return result, nil
}
