package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxSSELineSize is the maximum size of a single stream line (1 MB).
// The default bufio.Scanner limit is 64 KiB, which is too small for
// large events such as tool-call arguments or long completions. If a line
// exceeds this limit the scanner returns a wrapped bufio.ErrTooLong.
const maxSSELineSize = 1 * 1024 * 1024

// doneSentinel is the terminal data payload of OpenAI-compatible streams.
const doneSentinel = "[DONE]"

// SSEEvent is one dispatched Server-Sent Event.
type SSEEvent struct {
	Event string // value of the last "event:" field, empty when absent
	Data  string   // "data:" lines joined with newlines
	Lines []string // the individual "data:" values, in order
	Done  bool     // the payload was the [DONE] sentinel
}

// SSEScanner reads Server-Sent Events (SSE) from an io.Reader.
// It handles multi-line data fields, skips comments and empty lines,
// captures event names and detects the [DONE] sentinel used by
// OpenAI-compatible APIs.
type SSEScanner struct {
	scanner *bufio.Scanner
}

// NewSSEScanner creates an SSEScanner that reads SSE events from the given reader.
// The scanner supports individual SSE lines up to maxSSELineSize (1 MB). Lines
// exceeding this limit will cause Next() to return an error wrapping bufio.ErrTooLong.
func NewSSEScanner(reader io.Reader) *SSEScanner {
	return &SSEScanner{scanner: newLineScanner(reader)}
}

func newLineScanner(reader io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return scanner
}

// Next returns the next SSE event.
// It skips comment lines (starting with ':') and blank lines between events.
// The [DONE] sentinel is returned as an event with Done set; the caller
// decides whether to keep reading. io.EOF is returned once the reader is
// exhausted. An event still buffered when the reader ends is dispatched.
func (sseScanner *SSEScanner) Next() (SSEEvent, error) {
	var dataLines []string
	var eventName string

	for sseScanner.scanner.Scan() {
		line := sseScanner.scanner.Text()

		// Empty line signals end of an event; flush accumulated data lines
		if line == "" {
			if len(dataLines) > 0 {
				return newSSEEvent(eventName, dataLines), nil
			}
			eventName = ""
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			dataLines = append(dataLines, strings.TrimRight(value, "\r"))
		case "event":
			eventName = strings.TrimSpace(value)
		}
		// id: and retry: are not used by any provider
	}

	if err := sseScanner.scanner.Err(); err != nil {
		return SSEEvent{}, fmt.Errorf("SSE scanner error: %w", err)
	}

	if len(dataLines) > 0 {
		return newSSEEvent(eventName, dataLines), nil
	}

	return SSEEvent{}, io.EOF
}

func newSSEEvent(eventName string, dataLines []string) SSEEvent {
	data := strings.Join(dataLines, "\n")
	if strings.TrimSpace(data) == doneSentinel {
		return SSEEvent{Event: eventName, Done: true}
	}
	return SSEEvent{Event: eventName, Data: data, Lines: dataLines}
}

// NDJSONScanner reads newline-delimited JSON, one object per line, as used by
// Ollama's native API.
type NDJSONScanner struct {
	scanner *bufio.Scanner
}

// NewNDJSONScanner creates an NDJSONScanner with the same line limit as
// SSEScanner.
func NewNDJSONScanner(reader io.Reader) *NDJSONScanner {
	return &NDJSONScanner{scanner: newLineScanner(reader)}
}

// Next returns the next non-blank line, or io.EOF at the end of the reader.
func (ndjsonScanner *NDJSONScanner) Next() (string, error) {
	for ndjsonScanner.scanner.Scan() {
		line := strings.TrimSpace(ndjsonScanner.scanner.Text())
		if line != "" {
			return line, nil
		}
	}

	if err := ndjsonScanner.scanner.Err(); err != nil {
		return "", fmt.Errorf("NDJSON scanner error: %w", err)
	}
	return "", io.EOF
}
