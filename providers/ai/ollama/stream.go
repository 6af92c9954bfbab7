package ollama

import (
	"encoding/json"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/tidwall/gjson"
)

// streamDecoder decodes /api/chat NDJSON lines. Each line carries new
// message text; the last one has done set and the token counters.
type streamDecoder struct {
	model  ai.ModelIden
	inline bool

	toolCalls int
}

func (d *streamDecoder) Framing() ai.Framing   { return ai.FramingNDJSON }
func (d *streamDecoder) InlineReasoning() bool { return d.inline }

func (d *streamDecoder) Decode(frame ai.Frame) (ai.FrameResult, error) {
	if !gjson.Valid(frame.Data) {
		return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: ai.ErrInvalidJSON}
	}
	if gjson.Get(frame.Data, "error").Exists() {
		return ai.FrameResult{}, &ai.ProviderError{Model: d.model, Body: frame.Data}
	}

	var line chatResponse
	if err := json.Unmarshal([]byte(frame.Data), &line); err != nil {
		return ai.FrameResult{}, &ai.DecodeError{Model: d.model, Fragment: frame.Data, Err: err}
	}

	result := ai.FrameResult{ProviderModel: line.Model}

	if line.Message.Thinking != "" {
		result.Chunks = append(result.Chunks, ai.StreamEvent{Type: ai.StreamEventReasoning, Reasoning: line.Message.Thinking})
	}
	if line.Message.Content != "" {
		result.Chunks = append(result.Chunks, ai.StreamEvent{Type: ai.StreamEventContent, Content: line.Message.Content})
	}
	// tool calls arrive whole on a single line
	for _, toolCall := range line.Message.ToolCalls {
		result.Chunks = append(result.Chunks, ai.StreamEvent{
			Type: ai.StreamEventToolCall,
			ToolCall: &ai.ToolCallDelta{
				Index:     d.toolCalls,
				ID:        newToolCallID(),
				Name:      toolCall.Function.Name,
				Arguments: toolArguments(toolCall),
			},
		})
		d.toolCalls++
	}

	if line.Done {
		result.Done = true
		result.Usage = line.toUsage()
		result.FinishReason = mapDoneReason(line.DoneReason)
		if result.FinishReason == ai.FinishReasonStop && d.toolCalls > 0 {
			result.FinishReason = ai.FinishReasonToolCalls
		}
	}

	return result, nil
}
