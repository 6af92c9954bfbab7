package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/leofalp/unillm/core/client"
	"github.com/leofalp/unillm/providers/ai"
)

func TestLoggingMiddleware_SendLevels(t *testing.T) {
	response := &ai.ChatResponse{
		Content:      "General Kenobi",
		FinishReason: ai.FinishReasonStop,
		Usage:        &ai.Usage{PromptTokens: ai.Tokens(10), CompletionTokens: ai.Tokens(4), TotalTokens: ai.Tokens(14)},
	}

	tests := []struct {
		level       LogLevel
		wantCount   bool
		wantFinish  bool
		wantContent bool
	}{
		{LogLevelMinimal, false, false, false},
		{LogLevelStandard, true, true, false},
		{LogLevelVerbose, true, true, true},
	}

	for _, tt := range tests {
		logger, buf := jsonLogger()
		chain := NewLoggingMiddleware(logger, tt.level).Send(makeSendFunc(0, response, nil))
		if _, err := chain(context.Background(), testCall()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		records := logRecords(t, buf)
		if len(records) != 2 {
			t.Fatalf("level %d: expected 2 records, got %d", tt.level, len(records))
		}
		start, done := records[0], records[1]
		if start["provider"] != "anthropic" || start["model"] != testModel.Name {
			t.Errorf("level %d: unexpected start record %v", tt.level, start)
		}
		if _, ok := start["message_count"]; ok != tt.wantCount {
			t.Errorf("level %d: message_count presence = %v", tt.level, ok)
		}
		if _, ok := start["last_message_content"]; ok != tt.wantContent {
			t.Errorf("level %d: last_message_content presence = %v", tt.level, ok)
		}
		if done["total_tokens"] != float64(14) {
			t.Errorf("level %d: expected token counts, got %v", tt.level, done)
		}
		if _, ok := done["finish_reason"]; ok != tt.wantFinish {
			t.Errorf("level %d: finish_reason presence = %v", tt.level, ok)
		}
		if _, ok := done["response_content"]; ok != tt.wantContent {
			t.Errorf("level %d: response_content presence = %v", tt.level, ok)
		}
	}
}

func TestLoggingMiddleware_SendError(t *testing.T) {
	logger, buf := jsonLogger()
	failure := &ai.ProviderError{Model: testModel, StatusCode: http.StatusTooManyRequests, Body: "slow down"}

	_, err := NewLoggingMiddleware(logger, LogLevelStandard).Send(makeSendFunc(0, nil, failure))(context.Background(), testCall())
	if !errors.Is(err, failure) {
		t.Fatalf("expected the provider error, got %v", err)
	}

	records := logRecords(t, buf)
	last := records[len(records)-1]
	if last["level"] != "ERROR" || last["error_class"] != "rate_limit" {
		t.Errorf("unexpected failure record %v", last)
	}
}

func TestLoggingMiddleware_StreamCompletion(t *testing.T) {
	logger, buf := jsonLogger()

	stream, err := NewLoggingMiddleware(logger, LogLevelVerbose).Stream(makeStreamFunc(0))(context.Background(), testCall())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// nothing is logged as completed until the stream is drained
	if strings.Contains(buf.String(), "llm stream completed") {
		t.Fatal("completion logged before draining")
	}
	if _, err := stream.Collect(); err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}

	records := logRecords(t, buf)
	last := records[len(records)-1]
	if last["msg"] != "llm stream completed" || last["finish_reason"] != "stop" || last["response_content"] != "hello" {
		t.Errorf("unexpected completion record %v", last)
	}
}

func TestLoggingMiddleware_StreamAbandoned(t *testing.T) {
	logger, buf := jsonLogger()

	stream, err := NewLoggingMiddleware(logger, LogLevelMinimal).Stream(makeStreamFunc(0))(context.Background(), testCall())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range stream.Iter() {
		break
	}

	records := logRecords(t, buf)
	if last := records[len(records)-1]; last["msg"] != "llm stream abandoned" {
		t.Errorf("expected abandoned record, got %v", last)
	}
}

func TestLoggingMiddleware_PreStreamError(t *testing.T) {
	logger, buf := jsonLogger()
	failing := func(context.Context, client.Call) (*ai.ChatStream, error) {
		return nil, &ai.TransportError{Model: testModel, Err: errors.New("connection refused")}
	}

	if _, err := NewLoggingMiddleware(logger, LogLevelMinimal).Stream(failing)(context.Background(), testCall()); err == nil {
		t.Fatal("expected error")
	}

	records := logRecords(t, buf)
	if last := records[len(records)-1]; last["msg"] != "llm stream failed" || last["error_class"] != "transport" {
		t.Errorf("unexpected failure record %v", last)
	}
}
