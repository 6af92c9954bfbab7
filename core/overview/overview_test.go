package overview

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/leofalp/unillm/core/client"
	"github.com/leofalp/unillm/providers/ai"
)

var testModel = ai.ModelIden{Kind: ai.KindOpenAI, Name: "gpt-4o"}

func testUsage(prompt, completion, reasoning int) *ai.Usage {
	return &ai.Usage{
		PromptTokens:            ai.Tokens(prompt),
		CompletionTokens:        ai.Tokens(completion),
		TotalTokens:             ai.Tokens(prompt + completion),
		CompletionTokensDetails: &ai.CompletionTokensDetails{ReasoningTokens: ai.Tokens(reasoning)},
	}
}

func TestOverviewFromContext(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != nil {
		t.Fatal("expected no overview on a bare context")
	}

	first := OverviewFromContext(&ctx)
	second := OverviewFromContext(&ctx)
	if first == nil || first != second {
		t.Error("expected the same Overview on the second call")
	}
	if FromContext(ctx) != first {
		t.Error("expected the context pointer to be updated")
	}
}

func TestToContext_NilContext(t *testing.T) {
	ctx := New().ToContext(nil)
	if FromContext(ctx) == nil {
		t.Error("expected an overview on the derived context")
	}
}

func TestOverview_Accumulates(t *testing.T) {
	overview := New()
	overview.AddResponse(&ai.ChatResponse{
		Model: testModel,
		Usage: testUsage(10, 5, 2),
		ToolCalls: []ai.ToolCall{
			{Function: ai.ToolCallFunction{Name: "weather"}},
			{Function: ai.ToolCallFunction{Name: "weather"}},
		},
	})
	overview.AddStreamEnd(&ai.StreamEnd{Model: testModel, Usage: testUsage(4, 1, 0)})
	overview.AddResponse(&ai.ChatResponse{Model: testModel})
	overview.AddFailure(testModel, &ai.ProviderError{Model: testModel, StatusCode: 429})

	snapshot := overview.Snapshot()
	if snapshot.Requests != 4 || snapshot.Models["openai::gpt-4o"] != 4 {
		t.Errorf("unexpected counts %+v", snapshot)
	}
	want := TokenTotals{Prompt: 14, Completion: 6, Reasoning: 2, Total: 20}
	if snapshot.Tokens != want {
		t.Errorf("expected %+v, got %+v", want, snapshot.Tokens)
	}
	if snapshot.ToolCalls["weather"] != 2 {
		t.Errorf("unexpected tool calls %v", snapshot.ToolCalls)
	}
	if snapshot.Failures[ai.ClassRateLimit] != 1 {
		t.Errorf("unexpected failures %v", snapshot.Failures)
	}
}

func TestOverview_CachedTokens(t *testing.T) {
	overview := New()
	usage := testUsage(100, 10, 0)
	usage.PromptTokensDetails = &ai.PromptTokensDetails{CachedTokens: ai.Tokens(80)}
	overview.AddResponse(&ai.ChatResponse{Model: testModel, Usage: usage})

	if cached := overview.Snapshot().Tokens.Cached; cached != 80 {
		t.Errorf("expected 80 cached tokens, got %d", cached)
	}
}

func TestOverview_SnapshotIsACopy(t *testing.T) {
	overview := New()
	overview.AddResponse(&ai.ChatResponse{Model: testModel})

	snapshot := overview.Snapshot()
	snapshot.Models["openai::gpt-4o"] = 99

	if overview.Snapshot().Models["openai::gpt-4o"] != 1 {
		t.Error("expected the snapshot map to be independent")
	}
}

func TestOverview_ConcurrentUse(t *testing.T) {
	overview := New()
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			overview.AddResponse(&ai.ChatResponse{Model: testModel, Usage: testUsage(1, 1, 0)})
		}()
	}
	wg.Wait()

	if snapshot := overview.Snapshot(); snapshot.Requests != 20 || snapshot.Tokens.Total != 40 {
		t.Errorf("unexpected totals %+v", snapshot)
	}
}

/*
	MIDDLEWARE
*/

func testCall() client.Call {
	return client.Call{Target: ai.DefaultServiceTarget(testModel)}
}

func TestMiddleware_Send(t *testing.T) {
	failure := &ai.ProviderError{Model: testModel, StatusCode: 503}
	responses := []error{nil, failure}
	i := 0
	send := NewMiddleware().Send(func(context.Context, client.Call) (*ai.ChatResponse, error) {
		err := responses[i]
		i++
		if err != nil {
			return nil, err
		}
		return &ai.ChatResponse{Model: testModel, Usage: testUsage(3, 2, 0)}, nil
	})

	overview := New()
	ctx := overview.ToContext(context.Background())
	send(ctx, testCall())
	send(ctx, testCall())

	snapshot := overview.Snapshot()
	if snapshot.Requests != 2 || snapshot.Tokens.Total != 5 || snapshot.Failures[ai.ClassOutage] != 1 {
		t.Errorf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.LastResponse == nil {
		t.Error("expected the last response to be kept")
	}
}

func TestMiddleware_SendWithoutOverview(t *testing.T) {
	called := false
	send := NewMiddleware().Send(func(context.Context, client.Call) (*ai.ChatResponse, error) {
		called = true
		return &ai.ChatResponse{}, nil
	})
	if _, err := send(context.Background(), testCall()); err != nil || !called {
		t.Errorf("expected pass-through, got called=%v err=%v", called, err)
	}
}

func endingStream(usage *ai.Usage, err error) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: "hi"}, nil) {
			return
		}
		if err != nil {
			yield(ai.StreamEvent{}, err)
			return
		}
		yield(ai.StreamEvent{Type: ai.StreamEventEnd, End: &ai.StreamEnd{Model: testModel, Usage: usage}}, nil)
	})
}

func TestMiddleware_Stream(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		abandon  bool
		requests int
		tokens   int
		failures int
	}{
		{name: "completed", requests: 1, tokens: 7},
		{name: "failed", err: errors.New("connection reset"), requests: 1, failures: 1},
		{name: "abandoned", abandon: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := NewMiddleware().Stream(func(context.Context, client.Call) (*ai.ChatStream, error) {
				return endingStream(testUsage(5, 2, 0), tt.err), nil
			})

			overview := New()
			chatStream, err := stream(overview.ToContext(context.Background()), testCall())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for range chatStream.Iter() {
				if tt.abandon {
					break
				}
			}

			snapshot := overview.Snapshot()
			failures := 0
			for _, count := range snapshot.Failures {
				failures += count
			}
			if snapshot.Requests != tt.requests || snapshot.Tokens.Total != tt.tokens || failures != tt.failures {
				t.Errorf("unexpected snapshot %+v", snapshot)
			}
		})
	}
}
