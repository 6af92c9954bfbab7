package ai

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// StreamEventType identifies the kind of payload carried by a StreamEvent.
type StreamEventType string

const (
	// StreamEventStart is the first event of every stream.
	StreamEventStart StreamEventType = "start"
	// StreamEventContent indicates a text content delta.
	StreamEventContent StreamEventType = "content"
	// StreamEventReasoning indicates a reasoning/thinking content delta.
	StreamEventReasoning StreamEventType = "reasoning"
	// StreamEventToolCall indicates an incremental tool call delta (name or arguments chunk).
	StreamEventToolCall StreamEventType = "tool_call"
	// StreamEventEnd is the last event of every stream.
	StreamEventEnd StreamEventType = "end"
)

// ToolCallDelta represents an incremental update to a tool call being streamed.
// Deltas are merged by ID. ID and Name are usually only present on the first
// chunk of a call; later chunks carry Arguments fragments and are matched to
// their call by Index.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// StreamEvent is one normalized increment of a streaming response. A stream
// yields exactly one Start, any number of chunks and exactly one End.
type StreamEvent struct {
	Type      StreamEventType `json:"type"`
	Content   string          `json:"content,omitempty"`   // Type == StreamEventContent
	Reasoning string          `json:"reasoning,omitempty"` // Type == StreamEventReasoning
	ToolCall  *ToolCallDelta  `json:"tool_call,omitempty"` // Type == StreamEventToolCall
	End       *StreamEnd      `json:"end,omitempty"`       // Type == StreamEventEnd
}

// StreamEnd is the payload of the terminal event. Captured fields are only
// filled when the matching ChatOptions capture flag is on.
type StreamEnd struct {
	Model         ModelIden  `json:"model"`
	ProviderModel string     `json:"provider_model,omitempty"`
	ResponseID    string     `json:"response_id,omitempty"`
	FinishReason  string     `json:"finish_reason,omitempty"`
	Usage         *Usage     `json:"usage,omitempty"`
	Content       *string    `json:"content,omitempty"`
	Reasoning     *string    `json:"reasoning,omitempty"`
	ToolCalls     []ToolCall `json:"tool_calls,omitempty"`

	// Err is the error that terminated the stream, nil on a clean end. The
	// same error is yielded alongside the End event.
	Err error `json:"-"`
}

// ChatStream wraps a streaming iterator and provides automatic accumulation
// of deltas into a final ChatResponse. It supports both range-based iteration
// for real-time token processing and a convenience Collect() method for callers
// who want the complete response.
//
// Important: callers must consume the stream, either by iterating with Iter()
// (including breaking out of the loop early) or by calling Collect(). The
// response body is only released when the iterator completes or is abandoned
// via a loop break.
type ChatStream struct {
	iterator iter.Seq2[StreamEvent, error]
}

// NewChatStream creates a ChatStream from a raw streaming iterator.
func NewChatStream(iterator iter.Seq2[StreamEvent, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// NewSingleEventStream replays a complete ChatResponse as a stream: Start, one
// chunk per non-empty part, then an End carrying everything captured.
func NewSingleEventStream(response *ChatResponse) *ChatStream {
	iteratorFunc := func(yield func(StreamEvent, error) bool) {
		if !yield(StreamEvent{Type: StreamEventStart}, nil) {
			return
		}

		if response.Reasoning != "" {
			if !yield(StreamEvent{Type: StreamEventReasoning, Reasoning: response.Reasoning}, nil) {
				return
			}
		}

		if response.Content != "" {
			if !yield(StreamEvent{Type: StreamEventContent, Content: response.Content}, nil) {
				return
			}
		}

		for toolIndex, toolCall := range response.ToolCalls {
			if !yield(StreamEvent{
				Type: StreamEventToolCall,
				ToolCall: &ToolCallDelta{
					Index:     toolIndex,
					ID:        toolCall.ID,
					Name:      toolCall.Function.Name,
					Arguments: toolCall.Function.Arguments,
				},
			}, nil) {
				return
			}
		}

		content, reasoning := response.Content, response.Reasoning
		yield(StreamEvent{Type: StreamEventEnd, End: &StreamEnd{
			Model:         response.Model,
			ProviderModel: response.ProviderModel,
			ResponseID:    response.ID,
			FinishReason:  response.FinishReason,
			Usage:         response.Usage,
			Content:       &content,
			Reasoning:     &reasoning,
			ToolCalls:     response.ToolCalls,
		}}, nil)
	}

	return NewChatStream(iteratorFunc)
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
// Example:
//
//	for event, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    fmt.Print(event.Content)
//	}
func (stream *ChatStream) Iter() iter.Seq2[StreamEvent, error] {
	return stream.iterator
}

// Collect consumes the entire stream and returns the accumulated ChatResponse.
// Content, reasoning and tool calls are rebuilt from the chunks; usage, finish
// reason and model come from the End event. A terminating error is returned
// together with the partial response.
func (stream *ChatStream) Collect() (*ChatResponse, error) {
	accumulated := &ChatResponse{}
	var content, reasoning strings.Builder
	var toolCalls toolCallAccumulator

	finalize := func() {
		accumulated.Content = content.String()
		accumulated.Reasoning = reasoning.String()
		accumulated.ToolCalls = toolCalls.toolCalls()
	}

	for event, err := range stream.iterator {
		switch event.Type {
		case StreamEventContent:
			content.WriteString(event.Content)

		case StreamEventReasoning:
			reasoning.WriteString(event.Reasoning)

		case StreamEventToolCall:
			if event.ToolCall != nil {
				toolCalls.add(event.ToolCall)
			}

		case StreamEventEnd:
			if end := event.End; end != nil {
				accumulated.Model = end.Model
				accumulated.ProviderModel = end.ProviderModel
				accumulated.ID = end.ResponseID
				accumulated.FinishReason = end.FinishReason
				accumulated.Usage = end.Usage
			}
		}

		if err != nil {
			finalize()
			return accumulated, err
		}
	}

	finalize()
	return accumulated, nil
}

// MaxToolCallIndex bounds the tool call index accepted from a provider
// stream.
const MaxToolCallIndex = 1024

// ValidateToolCallIndices returns ErrToolCallIndex when a tool call chunk
// carries an index outside [0, MaxToolCallIndex).
func ValidateToolCallIndices(chunks []StreamEvent) error {
	for _, chunk := range chunks {
		if chunk.ToolCall == nil {
			continue
		}
		if index := chunk.ToolCall.Index; index < 0 || index >= MaxToolCallIndex {
			return fmt.Errorf("%w: %d", ErrToolCallIndex, index)
		}
	}
	return nil
}

// toolCallBuilder accumulates incremental tool call deltas into a complete ToolCall.
type toolCallBuilder struct {
	index     int
	id        string
	name      string
	arguments strings.Builder
}

// toolCallAccumulator merges tool call deltas keyed by call id. Deltas
// without an id continue the call last seen at the same index, so a delta
// carrying a new id at an index already in use starts a new call.
type toolCallAccumulator struct {
	builders []*toolCallBuilder
	byIndex  map[int]*toolCallBuilder
	byID     map[string]*toolCallBuilder
}

func (a *toolCallAccumulator) add(delta *ToolCallDelta) {
	if a.byIndex == nil {
		a.byIndex = make(map[int]*toolCallBuilder)
		a.byID = make(map[string]*toolCallBuilder)
	}

	builder := a.byID[delta.ID]
	if builder == nil {
		builder = a.byIndex[delta.Index]
		if builder == nil || (delta.ID != "" && builder.id != "" && builder.id != delta.ID) {
			builder = &toolCallBuilder{index: delta.Index}
			a.builders = append(a.builders, builder)
		}
	}
	a.byIndex[delta.Index] = builder

	if delta.ID != "" && builder.id == "" {
		builder.id = delta.ID
		a.byID[delta.ID] = builder
	}
	if delta.Name != "" {
		builder.name = delta.Name
	}
	if delta.Arguments != "" {
		builder.arguments.WriteString(delta.Arguments)
	}
}

// toolCalls returns the accumulated calls ordered by index, then by first
// appearance.
func (a *toolCallAccumulator) toolCalls() []ToolCall {
	builders := slices.Clone(a.builders)
	slices.SortStableFunc(builders, func(x, y *toolCallBuilder) int { return cmp.Compare(x.index, y.index) })

	var toolCalls []ToolCall
	for _, builder := range builders {
		if builder.id == "" && builder.name == "" && builder.arguments.Len() == 0 {
			continue
		}
		toolCalls = append(toolCalls, ToolCall{
			ID:   builder.id,
			Type: "function",
			Function: ToolCallFunction{
				Name:      builder.name,
				Arguments: builder.arguments.String(),
			},
		})
	}
	return toolCalls
}
