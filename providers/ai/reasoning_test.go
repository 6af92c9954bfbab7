package ai

import (
	"strings"
	"testing"
)

func TestSplitThinkTags(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantContent   string
		wantReasoning string
	}{
		{"no tags", "plain answer", "plain answer", ""},
		{"leading block", "<think>\nstep one\n</think>\n\nThe answer is 4.", "The answer is 4.", "step one"},
		{"text before block", "Sure. <think>hmm</think> Done.", "Sure. Done.", "hmm"},
		{"unterminated block", "<think>still thinking", "", "still thinking"},
		{"two blocks", "<think>a</think>x<think>b</think>y", "xy", "ab"},
		{"whitespace inside block", "<think>  plan \n\n</think>go", "go", "plan"},
		{"unterminated with trailing newline", "<think>still\n", "", "still"},
		{"content is not trimmed", "answer \n", "answer \n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, reasoning := SplitThinkTags(tt.input)
			if content != tt.wantContent {
				t.Errorf("content = %q, want %q", content, tt.wantContent)
			}
			if reasoning != tt.wantReasoning {
				t.Errorf("reasoning = %q, want %q", reasoning, tt.wantReasoning)
			}
		})
	}
}

// TestThinkTagSplitter_ChunkBoundaries feeds the same text split at every
// possible position and expects the same result as a single feed.
func TestThinkTagSplitter_ChunkBoundaries(t *testing.T) {
	const input = "<think>weigh options</think>Final: yes"

	for cut := 0; cut <= len(input); cut++ {
		var splitter ThinkTagSplitter
		var content, reasoning strings.Builder
		for _, chunk := range []string{input[:cut], input[cut:]} {
			c, r := splitter.Feed(chunk)
			content.WriteString(c)
			reasoning.WriteString(r)
		}
		c, r := splitter.Flush()
		content.WriteString(c)
		reasoning.WriteString(r)

		if content.String() != "Final: yes" || reasoning.String() != "weigh options" {
			t.Errorf("cut at %d: content=%q reasoning=%q", cut, content.String(), reasoning.String())
		}
	}
}

func TestThinkTagSplitter_ByteByByte(t *testing.T) {
	const input = "<think>a<b</think>c</thin"

	var splitter ThinkTagSplitter
	var content, reasoning strings.Builder
	for i := range len(input) {
		c, r := splitter.Feed(input[i : i+1])
		content.WriteString(c)
		reasoning.WriteString(r)
	}
	c, r := splitter.Flush()
	content.WriteString(c)
	reasoning.WriteString(r)

	if reasoning.String() != "a<b" {
		t.Errorf("reasoning = %q, want %q", reasoning.String(), "a<b")
	}
	if content.String() != "c</thin" {
		t.Errorf("content = %q, want %q", content.String(), "c</thin")
	}
}

func TestThinkTagSplitter_HoldsPartialTag(t *testing.T) {
	var splitter ThinkTagSplitter
	content, reasoning := splitter.Feed("hello <thi")
	if content != "hello " || reasoning != "" {
		t.Errorf("expected partial tag to be held back, got content=%q reasoning=%q", content, reasoning)
	}
	content, reasoning = splitter.Feed("nk>idea")
	if content != "" || reasoning != "idea" {
		t.Errorf("expected reasoning after completed tag, got content=%q reasoning=%q", content, reasoning)
	}
	if !splitter.InThink() {
		t.Error("expected splitter to be inside a think block")
	}
}

// TestThinkTagSplitter_MatchesSplitThinkTags feeds text split at every
// position and expects exactly what SplitThinkTags returns for the whole.
func TestThinkTagSplitter_MatchesSplitThinkTags(t *testing.T) {
	inputs := []string{
		"<think>\nstep one\n</think>\n\nThe answer is 4.",
		"<think>a \n b  </think> c ",
		"<think>open ended\n\n",
	}

	for _, input := range inputs {
		wantContent, wantReasoning := SplitThinkTags(input)
		for cut := 0; cut <= len(input); cut++ {
			var splitter ThinkTagSplitter
			var content, reasoning strings.Builder
			for _, chunk := range []string{input[:cut], input[cut:]} {
				c, r := splitter.Feed(chunk)
				content.WriteString(c)
				reasoning.WriteString(r)
			}
			c, r := splitter.Flush()
			content.WriteString(c)
			reasoning.WriteString(r)

			if content.String() != wantContent || reasoning.String() != wantReasoning {
				t.Errorf("%q cut at %d: content=%q reasoning=%q, want %q / %q",
					input, cut, content.String(), reasoning.String(), wantContent, wantReasoning)
			}
		}
	}
}
