package anthropic

import (
	"encoding/json"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/tidwall/gjson"
)

// streamDecoder holds the per-stream state of one Messages API stream.
//
// Anthropic SSE lifecycle:
//
//	message_start → content_block_start → content_block_delta(s) →
//	content_block_stop → message_delta → message_stop
type streamDecoder struct {
	model ai.ModelIden

	// tool calls are indexed from zero in the order their blocks open
	toolIndexByBlock map[int]int

	// usage is spread across message_start (input, cache) and
	// message_delta (output)
	usage anthropicUsage
}

func (d *streamDecoder) Framing() ai.Framing { return ai.FramingSSE }

func (d *streamDecoder) Decode(frame ai.Frame) (ai.FrameResult, error) {
	if !gjson.Valid(frame.Data) {
		return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: ai.ErrInvalidJSON}
	}

	eventType := frame.Event
	if eventType == "" {
		eventType = gjson.Get(frame.Data, "type").String()
	}

	switch eventType {
	case "error":
		return ai.FrameResult{}, &ai.ProviderError{Model: d.model, Body: frame.Data}
	case "ping", "content_block_stop", "":
		return ai.FrameResult{}, nil
	}

	var event anthropicStreamEvent
	if err := json.Unmarshal([]byte(frame.Data), &event); err != nil {
		return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: err}
	}

	var result ai.FrameResult

	switch eventType {
	case "message_start":
		if event.Message != nil {
			d.usage = event.Message.Usage
			result.ResponseID = event.Message.ID
			result.ProviderModel = event.Message.Model
			result.Usage = d.usage.toUsage()
		}

	case "content_block_start":
		// ID and name are only present here, not on the argument deltas
		if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
			toolIndex := len(d.toolIndexByBlock)
			d.toolIndexByBlock[event.Index] = toolIndex
			result.Chunks = append(result.Chunks, ai.StreamEvent{
				Type: ai.StreamEventToolCall,
				ToolCall: &ai.ToolCallDelta{
					Index: toolIndex,
					ID:    event.ContentBlock.ID,
					Name:  event.ContentBlock.Name,
				},
			})
		}

	case "content_block_delta":
		if event.Delta == nil {
			break
		}
		switch event.Delta.Type {
		case "text_delta":
			result.Chunks = append(result.Chunks, ai.StreamEvent{Type: ai.StreamEventContent, Content: event.Delta.Text})
		case "thinking_delta":
			result.Chunks = append(result.Chunks, ai.StreamEvent{Type: ai.StreamEventReasoning, Reasoning: event.Delta.Thinking})
		case "input_json_delta":
			toolIndex, ok := d.toolIndexByBlock[event.Index]
			if ok && event.Delta.PartialJSON != "" {
				result.Chunks = append(result.Chunks, ai.StreamEvent{
					Type:     ai.StreamEventToolCall,
					ToolCall: &ai.ToolCallDelta{Index: toolIndex, Arguments: event.Delta.PartialJSON},
				})
			}
		}

	case "message_delta":
		if event.Usage != nil {
			d.usage.OutputTokens = event.Usage.OutputTokens
			// newer API versions repeat the input counters here
			if event.Usage.InputTokens > 0 {
				d.usage.InputTokens = event.Usage.InputTokens
			}
			result.Usage = d.usage.toUsage()
		}
		if event.Delta != nil && event.Delta.StopReason != "" {
			result.FinishReason = mapStopReason(event.Delta.StopReason)
		}

	case "message_stop":
		result.Done = true
	}

	return result, nil
}
