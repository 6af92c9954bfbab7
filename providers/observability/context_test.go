package observability

import (
	"context"
	"testing"
)

type mockSpan struct {
	name string
}

func (s *mockSpan) End() {}
func (s *mockSpan) SetAttributes(attrs ...Attribute) {}
func (s *mockSpan) SetStatus(code StatusCode, desc string) {}
func (s *mockSpan) RecordError(err error) {}
func (s *mockSpan) AddEvent(name string, attrs ...Attribute) {}

func TestSpanFromContext_Empty(t *testing.T) {
	if span := SpanFromContext(context.Background()); span != nil {
		t.Errorf("expected nil span, got %v", span)
	}
	//nolint:staticcheck // nil context is handled on purpose
	if span := SpanFromContext(nil); span != nil {
		t.Errorf("expected nil span from nil context, got %v", span)
	}
}

func TestContextWithSpan_Overwrite(t *testing.T) {
	first := &mockSpan{name: "first"}
	second := &mockSpan{name: "second"}

	ctx := ContextWithSpan(context.Background(), first)
	if SpanFromContext(ctx) != first {
		t.Fatal("expected first span")
	}
	ctx = ContextWithSpan(ctx, second)
	if SpanFromContext(ctx) != second {
		t.Error("expected the innermost span to win")
	}
}

func TestObserverFromContext(t *testing.T) {
	if ObserverFromContext(context.Background()) != nil {
		t.Error("expected no observer on an empty context")
	}

	var observer Provider = nopProvider{}
	ctx := ContextWithObserver(context.Background(), observer)
	if ObserverFromContext(ctx) != observer {
		t.Error("expected the attached observer")
	}

	// span and observer keys do not collide
	ctx = ContextWithSpan(ctx, &mockSpan{})
	if ObserverFromContext(ctx) != observer || SpanFromContext(ctx) == nil {
		t.Error("expected both values to survive")
	}
}

type nopProvider struct{}

func (nopProvider) StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	return ctx, &mockSpan{name: name}
}
func (nopProvider) Counter(name string) Counter { return nil }
func (nopProvider) Histogram(name string) Histogram { return nil }
func (nopProvider) Trace(ctx context.Context, msg string, attrs ...Attribute) {}
func (nopProvider) Debug(ctx context.Context, msg string, attrs ...Attribute) {}
func (nopProvider) Info(ctx context.Context, msg string, attrs ...Attribute) {}
func (nopProvider) Warn(ctx context.Context, msg string, attrs ...Attribute) {}
func (nopProvider) Error(ctx context.Context, msg string, attrs ...Attribute) {}
