package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/unillm/core/client"
	"github.com/leofalp/unillm/providers/ai"
)

var testModel = ai.ModelIden{Kind: ai.KindAnthropic, Name: "claude-3-haiku-20240307"}

func testCall() client.Call {
	return client.Call{
		Target:  ai.DefaultServiceTarget(testModel),
		Request: ai.ChatRequest{Messages: []ai.Message{ai.NewUserMessage("Hello there")}},
	}
}

// makeSendFunc returns a SendFunc that waits before answering, honoring ctx.
func makeSendFunc(sleep time.Duration, response *ai.ChatResponse, err error) client.SendFunc {
	return func(ctx context.Context, _ client.Call) (*ai.ChatResponse, error) {
		select {
		case <-time.After(sleep):
			return response, err
		case <-ctx.Done():
			return nil, ai.ContextError(testModel, ctx.Err())
		}
	}
}

// makeStreamFunc returns a StreamFunc whose stream waits before emitting
// content and an End.
func makeStreamFunc(sleep time.Duration) client.StreamFunc {
	return func(ctx context.Context, _ client.Call) (*ai.ChatStream, error) {
		return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
			if !yield(ai.StreamEvent{Type: ai.StreamEventStart}, nil) {
				return
			}
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				yield(ai.StreamEvent{}, ai.ContextError(testModel, ctx.Err()))
				return
			}
			if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: "hello"}, nil) {
				return
			}
			content := "hello"
			yield(ai.StreamEvent{Type: ai.StreamEventEnd, End: &ai.StreamEnd{
				Model:        testModel,
				FinishReason: ai.FinishReasonStop,
				Usage:        &ai.Usage{PromptTokens: ai.Tokens(5), CompletionTokens: ai.Tokens(1), TotalTokens: ai.Tokens(6)},
				Content:      &content,
			}}, nil)
		}), nil
	}
}

// jsonLogger returns a logger writing JSON records into the returned buffer.
func jsonLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		records = append(records, record)
	}
	return records
}
