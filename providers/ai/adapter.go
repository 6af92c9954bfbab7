package ai

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/tidwall/sjson"
)

// Adapter translates between the provider-agnostic types of this package and
// one provider's wire protocol. Adapters do no I/O: the client sends the
// WebRequest and hands the body back for parsing. Implementations must be
// safe for concurrent use.
type Adapter interface {
	// Kind returns the adapter kind served by this implementation.
	Kind() AdapterKind

	// BuildRequest renders the HTTP request for target. The output is a pure
	// function of its inputs. Options the provider cannot honor are omitted
	// from the body and listed in WebRequest.Dropped.
	BuildRequest(target ServiceTarget, request ChatRequest, options ChatOptions, stream bool) (*WebRequest, error)

	// ParseResponse decodes a successful non-streaming response body. Only
	// the first choice is read.
	ParseResponse(target ServiceTarget, body []byte, options ChatOptions) (*ChatResponse, error)

	// NewStreamDecoder returns a decoder holding the per-stream state for
	// one streaming call.
	NewStreamDecoder(target ServiceTarget, options ChatOptions) StreamDecoder
}

// Framing is the line protocol of a streaming response body.
type Framing int

const (
	FramingSSE Framing = iota
	FramingNDJSON
)

// Frame is one framed payload of a streaming body. Event is the SSE event
// name when the provider sends one. Done marks a terminal sentinel such as
// "data: [DONE]"; Data is empty then.
type Frame struct {
	Event string
	Data  string
	Done  bool
}

// FrameResult is what a decoder extracted from one frame.
type FrameResult struct {
	Chunks        []StreamEvent // content, reasoning and tool-call chunks, in order
	Usage         *Usage        // latest usage snapshot, if the frame carried one
	FinishReason  string
	ProviderModel string
	ResponseID    string
	Done          bool // the frame is the provider's terminal marker
}

// StreamDecoder decodes the frames of one streaming response. A decoder is
// used by a single goroutine.
//
// Decode returns a *DecodeError for a frame that is not valid JSON (the frame
// is skipped) and a *ProviderError for an error reported inside the stream
// (the stream ends).
type StreamDecoder interface {
	Framing() Framing
	Decode(frame Frame) (FrameResult, error)
}

/*
	WEB REQUEST
*/

// WebRequest is a fully rendered HTTP request.
type WebRequest struct {
	Method  string
	URL     string
	Headers []Header
	Body    []byte
	Dropped []string // options omitted because the provider does not support them
}

// Header returns the first value of the named header.
func (r *WebRequest) Header(name string) (string, bool) {
	for _, header := range r.Headers {
		if header.Name == name {
			return header.Value, true
		}
	}
	return "", false
}

// AuthScheme tells how a provider expects its API key.
type AuthScheme struct {
	Header string
	Prefix string
}

var (
	BearerAuth = AuthScheme{Header: "Authorization", Prefix: "Bearer "}
	NoAuth     = AuthScheme{}
)

// NewJSONRequest renders a POST request for target. The URL is the endpoint
// joined with path, unless the target auth is a request override carrying
// its own URL. Auth headers come first, then the adapter headers, then
// options.ExtraHeaders. options.ExtraBody is merged into the JSON body.
func NewJSONRequest(target ServiceTarget, path string, scheme AuthScheme, body any, headers []Header, options ChatOptions) (*WebRequest, error) {
	url := target.Endpoint.URL(path)

	var allHeaders []Header
	if target.Auth.Kind() == AuthKindRequestOverride {
		overrideURL, overrideHeaders := target.Auth.Override()
		if overrideURL != "" {
			url = overrideURL
		}
		allHeaders = overrideHeaders
	} else if scheme.Header != "" {
		key, err := target.Auth.APIKey()
		if err != nil {
			return nil, err
		}
		if key != "" {
			allHeaders = append(allHeaders, Header{Name: scheme.Header, Value: scheme.Prefix + key})
		}
	}
	allHeaders = append(allHeaders, Header{Name: "Content-Type", Value: "application/json"})
	allHeaders = append(allHeaders, headers...)
	allHeaders = append(allHeaders, options.ExtraHeaders...)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling %s request: %w", target.Model.Kind, err)
	}
	payload, err = ApplyExtraBody(payload, options.ExtraBody)
	if err != nil {
		return nil, err
	}

	return &WebRequest{Method: "POST", URL: url, Headers: allHeaders, Body: payload}, nil
}

// ApplyExtraBody sets each extra entry on a JSON body. Keys are sjson paths,
// so "thinking.type" sets a nested field. Keys are applied in sorted order.
func ApplyExtraBody(body []byte, extra map[string]any) ([]byte, error) {
	for _, key := range slices.Sorted(maps.Keys(extra)) {
		var err error
		body, err = sjson.SetBytes(body, key, extra[key])
		if err != nil {
			return nil, fmt.Errorf("error applying extra body field %q: %w", key, err)
		}
	}
	return body, nil
}

// DroppedOptions collects the names of options that are set but not
// supported by a provider.
type DroppedOptions []string

// Drop records name when set is true.
func (d *DroppedOptions) Drop(name string, set bool) {
	if set {
		*d = append(*d, name)
	}
}

/*
	TOOL ARGUMENTS
*/

// ParseToolArguments decodes the JSON arguments of a tool call into T.
// Arguments truncated or slightly malformed by the model are repaired before
// giving up.
func ParseToolArguments[T any](call ToolCall) (T, error) {
	arguments := call.Function.Arguments
	if arguments == "" {
		arguments = "{}"
	}
	return utils.ParseStringAs[T](arguments)
}
