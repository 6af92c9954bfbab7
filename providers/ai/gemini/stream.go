package gemini

import (
	"encoding/json"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/tidwall/gjson"
)

// streamDecoder decodes streamGenerateContent SSE chunks. Each chunk is a
// generateContentResponse holding only the new parts; usage metadata, when
// present, is cumulative. The stream has no terminal marker and ends at EOF.
type streamDecoder struct {
	model ai.ModelIden

	toolCalls int
}

func (d *streamDecoder) Framing() ai.Framing { return ai.FramingSSE }

func (d *streamDecoder) Decode(frame ai.Frame) (ai.FrameResult, error) {
	if !gjson.Valid(frame.Data) {
		return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: ai.ErrInvalidJSON}
	}
	if gjson.Get(frame.Data, "error").Exists() {
		return ai.FrameResult{}, &ai.ProviderError{Model: d.model, Body: frame.Data}
	}

	var chunk generateContentResponse
	if err := json.Unmarshal([]byte(frame.Data), &chunk); err != nil {
		return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: err}
	}

	result := ai.FrameResult{
		ProviderModel: chunk.ModelVersion,
		ResponseID:    chunk.ResponseID,
		Usage:         chunk.UsageMetadata.toUsage(),
	}

	if len(chunk.Candidates) == 0 {
		if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != "" {
			result.FinishReason = ai.FinishReasonContentFilter
		}
		return result, nil
	}

	candidate := chunk.Candidates[0]
	if candidate.Content != nil {
		for _, p := range candidate.Content.Parts {
			switch {
			case p.FunctionCall != nil:
				// function calls arrive whole, never split across chunks
				result.Chunks = append(result.Chunks, ai.StreamEvent{
					Type: ai.StreamEventToolCall,
					ToolCall: &ai.ToolCallDelta{
						Index:     d.toolCalls,
						ID:        newToolCallID(),
						Name:      p.FunctionCall.Name,
						Arguments: functionArguments(p.FunctionCall),
					},
				})
				d.toolCalls++
			case p.Text == "":
			case p.Thought:
				result.Chunks = append(result.Chunks, ai.StreamEvent{Type: ai.StreamEventReasoning, Reasoning: p.Text})
			default:
				result.Chunks = append(result.Chunks, ai.StreamEvent{Type: ai.StreamEventContent, Content: p.Text})
			}
		}
	}

	if candidate.FinishReason != "" {
		result.FinishReason = mapFinishReason(candidate.FinishReason)
		if result.FinishReason == ai.FinishReasonStop && d.toolCalls > 0 {
			result.FinishReason = ai.FinishReasonToolCalls
		}
	}

	return result, nil
}
