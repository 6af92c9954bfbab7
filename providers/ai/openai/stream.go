package openai

import (
	"encoding/json"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/tidwall/gjson"
)

// streamDecoder maps "chat.completion.chunk" frames to stream chunks. Only
// the first choice is read. The [DONE] sentinel is handled by the framer.
type streamDecoder struct {
	model  ai.ModelIden
	inline bool
}

func (d *streamDecoder) Framing() ai.Framing   { return ai.FramingSSE }
func (d *streamDecoder) InlineReasoning() bool { return d.inline }

func (d *streamDecoder) Decode(frame ai.Frame) (ai.FrameResult, error) {
	if !gjson.Valid(frame.Data) {
		return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: ai.ErrInvalidJSON}
	}
	// OpenRouter and Groq report mid-stream failures as an error chunk
	if gjson.Get(frame.Data, "error").Exists() {
		return ai.FrameResult{}, &ai.ProviderError{Model: d.model, Body: frame.Data}
	}

	var chunk chatCompletionStreamChunk
	if err := json.Unmarshal([]byte(frame.Data), &chunk); err != nil {
		return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: err}
	}
	result := chunkToFrameResult(&chunk)
	if err := ai.ValidateToolCallIndices(result.Chunks); err != nil {
		return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: err}
	}
	return result, nil
}

// chunkToFrameResult converts a single streaming chunk. A chunk can carry
// reasoning, content, tool calls and usage at once; reasoning is emitted
// before content.
func chunkToFrameResult(chunk *chatCompletionStreamChunk) ai.FrameResult {
	result := ai.FrameResult{
		ResponseID:    chunk.ID,
		ProviderModel: chunk.Model,
	}

	// Usage chunk typically has empty choices.
	if chunk.Usage != nil {
		result.Usage = chunk.Usage.toUsage()
	} else if chunk.XGroq != nil && chunk.XGroq.Usage != nil {
		result.Usage = chunk.XGroq.Usage.toUsage()
	}

	for _, choice := range chunk.Choices {
		if choice.Index != 0 {
			continue
		}
		delta := choice.Delta

		if reasoning := delta.reasoningText(); reasoning != "" {
			result.Chunks = append(result.Chunks, ai.StreamEvent{Type: ai.StreamEventReasoning, Reasoning: reasoning})
		}

		if delta.Content != nil && *delta.Content != "" {
			result.Chunks = append(result.Chunks, ai.StreamEvent{Type: ai.StreamEventContent, Content: *delta.Content})
		}

		for _, part := range delta.ToolCalls {
			result.Chunks = append(result.Chunks, ai.StreamEvent{
				Type: ai.StreamEventToolCall,
				ToolCall: &ai.ToolCallDelta{
					Index:     part.Index,
					ID:        part.ID,
					Name:      part.Function.Name,
					Arguments: part.Function.Arguments,
				},
			})
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			result.FinishReason = mapFinishReason(*choice.FinishReason)
		}
	}

	return result
}
