package ai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/leofalp/unillm/internal/utils"
)

// InlineReasoningDecoder is implemented by decoders whose content deltas may
// carry inline <think> markup that should be split into the reasoning channel.
type InlineReasoningDecoder interface {
	InlineReasoning() bool
}

// frameSource yields framed payloads from a response body.
type frameSource interface {
	next() (Frame, error)
}

// sseSource yields one frame per event. Some providers put several JSON
// payloads in one event, one per data: line; when the joined data is not
// JSON but every line is, each line becomes its own frame.
type sseSource struct {
	scanner *utils.SSEScanner
	pending []Frame
}

func (s *sseSource) next() (Frame, error) {
	if len(s.pending) > 0 {
		frame := s.pending[0]
		s.pending = s.pending[1:]
		return frame, nil
	}

	event, err := s.scanner.Next()
	if err != nil {
		return Frame{}, err
	}
	if event.Done || len(event.Lines) < 2 || json.Valid([]byte(event.Data)) {
		return Frame{Event: event.Event, Data: event.Data, Done: event.Done}, nil
	}

	frames := make([]Frame, 0, len(event.Lines))
	for _, line := range event.Lines {
		payload := strings.TrimSpace(line)
		switch {
		case payload == "":
		case payload == "[DONE]":
			frames = append(frames, Frame{Event: event.Event, Done: true})
		case json.Valid([]byte(payload)):
			frames = append(frames, Frame{Event: event.Event, Data: payload})
		default:
			// a payload spread over several lines
			return Frame{Event: event.Event, Data: event.Data}, nil
		}
	}
	if len(frames) == 0 {
		return Frame{Event: event.Event, Data: event.Data}, nil
	}
	s.pending = frames[1:]
	return frames[0], nil
}

type ndjsonSource struct{ scanner *utils.NDJSONScanner }

func (s ndjsonSource) next() (Frame, error) {
	line, err := s.scanner.Next()
	if err != nil {
		return Frame{}, err
	}
	return Frame{Data: line}, nil
}

func newFrameSource(framing Framing, body io.Reader) frameSource {
	if framing == FramingNDJSON {
		return ndjsonSource{scanner: utils.NewNDJSONScanner(body)}
	}
	return &sseSource{scanner: utils.NewSSEScanner(body)}
}

// NewDemuxStream turns a streaming response body into a ChatStream. The
// stream is lazy: frames are read and decoded as the caller pulls events.
//
// Every stream yields one Start, zero or more chunks and one End, whether the
// provider sent a terminal marker, the body ended without one or framing
// failed. Frames that are not valid JSON are logged and skipped. Errors that
// end the stream are yielded together with the End event. When ctx is done
// the body is closed and a single (StreamEvent{}, err) pair is yielded
// instead of an End.
//
// The body is closed when the iteration finishes or is abandoned.
func NewDemuxStream(ctx context.Context, body io.ReadCloser, decoder StreamDecoder, model ModelIden, options ChatOptions, logger *slog.Logger) *ChatStream {
	if logger == nil {
		logger = slog.Default()
	}

	iteratorFunc := func(yield func(StreamEvent, error) bool) {
		defer utils.CloseWithLog(body)

		// unblock a pending read as soon as the caller gives up
		stopClose := context.AfterFunc(ctx, func() { _ = body.Close() })
		defer stopClose()

		session := newDemuxSession(model, options, decoder)
		source := newFrameSource(decoder.Framing(), body)

		for {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(StreamEvent{}, ContextError(model, ctxErr))
				return
			}

			frame, err := source.next()
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					yield(StreamEvent{}, ContextError(model, ctxErr))
					return
				}
				if errors.Is(err, io.EOF) {
					session.end(yield, nil)
					return
				}
				if errors.Is(err, bufio.ErrTooLong) {
					session.end(yield, &DecodeError{Model: model, Err: err})
					return
				}
				session.end(yield, &TransportError{Model: model, Err: err})
				return
			}

			if frame.Done {
				session.end(yield, nil)
				return
			}

			result, err := decoder.Decode(frame)
			if err != nil {
				var decodeErr *DecodeError
				if errors.As(err, &decodeErr) {
					logger.Warn("skipping malformed stream frame",
						"provider", model.Kind.String(),
						"model", model.Name,
						"event", frame.Event,
						"error", decodeErr.Err,
						"payload", TruncateFragment(decodeErr.Fragment),
					)
					continue
				}
				session.end(yield, err)
				return
			}

			if !session.apply(result, yield) {
				return
			}
			if result.Done {
				session.end(yield, nil)
				return
			}
		}
	}

	return NewChatStream(iteratorFunc)
}

// ContextError converts a context error into the error reported to callers:
// deadlines become *TimeoutError, cancellation is wrapped as is.
func ContextError(model ModelIden, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Model: model, Err: err}
	}
	return err
}

/*
	SESSION
*/

// demuxSession holds the per-stream state: lifecycle, captured content and
// the latest metadata reported by the provider.
type demuxSession struct {
	model   ModelIden
	options ChatOptions

	started bool

	splitter *ThinkTagSplitter

	content   strings.Builder
	reasoning strings.Builder
	toolCalls toolCallAccumulator

	usage         *Usage
	finishReason  string
	providerModel string
	responseID    string
}

func newDemuxSession(model ModelIden, options ChatOptions, decoder StreamDecoder) *demuxSession {
	session := &demuxSession{model: model, options: options}
	if inline, ok := decoder.(InlineReasoningDecoder); ok && inline.InlineReasoning() {
		session.splitter = &ThinkTagSplitter{}
	}
	return session
}

// apply records the metadata of a decoded frame and yields its chunks. It
// returns false when the caller stopped iterating.
func (s *demuxSession) apply(result FrameResult, yield func(StreamEvent, error) bool) bool {
	if result.Usage != nil {
		s.usage = result.Usage
	}
	if result.FinishReason != "" {
		s.finishReason = result.FinishReason
	}
	if result.ProviderModel != "" {
		s.providerModel = result.ProviderModel
	}
	if result.ResponseID != "" {
		s.responseID = result.ResponseID
	}

	for _, chunk := range result.Chunks {
		if chunk.Type == StreamEventContent && s.splitter != nil {
			content, reasoning := s.splitter.Feed(chunk.Content)
			if !s.emitText(yield, content, reasoning) {
				return false
			}
			continue
		}
		if !s.emit(yield, chunk) {
			return false
		}
	}
	return true
}

// emitText yields a reasoning chunk then a content chunk, skipping empty ones.
func (s *demuxSession) emitText(yield func(StreamEvent, error) bool, content, reasoning string) bool {
	if reasoning != "" && !s.emit(yield, StreamEvent{Type: StreamEventReasoning, Reasoning: reasoning}) {
		return false
	}
	if content != "" && !s.emit(yield, StreamEvent{Type: StreamEventContent, Content: content}) {
		return false
	}
	return true
}

// emit yields one chunk, preceded by Start on the first one.
func (s *demuxSession) emit(yield func(StreamEvent, error) bool, chunk StreamEvent) bool {
	switch chunk.Type {
	case StreamEventContent:
		if chunk.Content == "" {
			return true
		}
		s.content.WriteString(chunk.Content)
	case StreamEventReasoning:
		if chunk.Reasoning == "" {
			return true
		}
		s.reasoning.WriteString(chunk.Reasoning)
	case StreamEventToolCall:
		if chunk.ToolCall == nil {
			return true
		}
		s.toolCalls.add(chunk.ToolCall)
	default:
		return true
	}

	if !s.start(yield) {
		return false
	}
	return yield(chunk, nil)
}

func (s *demuxSession) start(yield func(StreamEvent, error) bool) bool {
	if s.started {
		return true
	}
	s.started = true
	return yield(StreamEvent{Type: StreamEventStart}, nil)
}

// end flushes held-back text and yields the terminal event with err.
func (s *demuxSession) end(yield func(StreamEvent, error) bool, err error) {
	if s.splitter != nil {
		content, reasoning := s.splitter.Flush()
		if !s.emitText(yield, content, reasoning) {
			return
		}
	}
	if !s.start(yield) {
		return
	}

	end := &StreamEnd{
		Model:         s.model,
		ProviderModel: s.providerModel,
		ResponseID:    s.responseID,
		FinishReason:  s.finishReason,
		Err:           err,
	}
	if s.options.CapturesUsage() {
		end.Usage = s.usage.Normalize()
	}
	if s.options.CapturesContent() {
		content := s.content.String()
		end.Content = &content
	}
	if s.options.CapturesReasoning() {
		reasoning := s.reasoning.String()
		end.Reasoning = &reasoning
	}
	if s.options.CapturesToolCalls() {
		end.ToolCalls = repairToolCalls(s.toolCalls.toolCalls())
	}

	yield(StreamEvent{Type: StreamEventEnd, End: end}, err)
}

// repairToolCalls fixes arguments left invalid by an interrupted stream.
// Arguments that cannot be repaired are kept verbatim.
func repairToolCalls(toolCalls []ToolCall) []ToolCall {
	for i := range toolCalls {
		arguments := toolCalls[i].Function.Arguments
		if arguments == "" || json.Valid([]byte(arguments)) {
			continue
		}
		if repaired, err := jsonrepair.JSONRepair(arguments); err == nil {
			toolCalls[i].Function.Arguments = repaired
		}
	}
	return toolCalls
}
