package utils

import (
	"strings"
	"testing"
)

// TestTruncateString table-driven tests cover: string shorter than maxLen,
// string exactly at maxLen, string longer than maxLen, zero maxLen (uses
// DefaultMaxStringLength), and negative maxLen.
func TestTruncateString(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		maxLen int
		// wantTruncated indicates whether the result should contain the truncation suffix
		wantTruncated bool
	}{
		{
			name:          "shorter than maxLen returns unchanged",
			input:         "hello",
			maxLen:        10,
			wantTruncated: false,
		},
		{
			name:          "exactly at maxLen returns unchanged",
			input:         "hello",
			maxLen:        5,
			wantTruncated: false,
		},
		{
			name:          "longer than maxLen gets truncated",
			input:         "hello world",
			maxLen:        5,
			wantTruncated: true,
		},
		{
			name:          "zero maxLen uses DefaultMaxStringLength",
			input:         strings.Repeat("a", DefaultMaxStringLength+1),
			maxLen:        0,
			wantTruncated: true,
		},
		{
			name:          "negative maxLen uses DefaultMaxStringLength",
			input:         strings.Repeat("b", DefaultMaxStringLength+1),
			maxLen:        -1,
			wantTruncated: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got := TruncateString(testCase.input, testCase.maxLen)

			hasSuffix := strings.Contains(got, "... (truncated, total:")
			if hasSuffix != testCase.wantTruncated {
				t.Errorf("TruncateString(%q, %d) truncated=%v, want truncated=%v; got %q",
					testCase.input, testCase.maxLen, hasSuffix, testCase.wantTruncated, got)
			}
		})
	}
}

// TestTruncateString_ContentPreserved verifies that the prefix before the
// ellipsis exactly matches the first maxLen characters of the input.
func TestTruncateString_ContentPreserved(t *testing.T) {
	input := "abcdefghij"
	got := TruncateString(input, 4)

	if !strings.HasPrefix(got, "abcd") {
		t.Errorf("TruncateString() should start with first 4 chars, got: %q", got)
	}
}
