package client

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

// Structured output accepts a subset of JSON schema: no $ref and no extra
// properties.
var schemaReflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

// StructuredResponse is a response whose content was decoded into T.
type StructuredResponse[T any] struct {
	Data T
	Raw  *ai.ChatResponse
}

// ResponseFormatFor returns a strict JSON-schema response format generated
// from T. Field names follow the json tags; `jsonschema:"..."` tags add
// descriptions and constraints.
func ResponseFormatFor[T any]() (*ai.ResponseFormat, error) {
	var zero T
	schema := schemaReflector.Reflect(zero)
	schema.Version = ""

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("error generating schema for %T: %w", zero, err)
	}
	return &ai.ResponseFormat{
		Type:   ai.ResponseFormatJSONSchema,
		Name:   schemaName(reflect.TypeFor[T]()),
		Schema: raw,
		Strict: true,
	}, nil
}

// ChatStructured asks model for a JSON answer shaped like T and decodes it.
// A ResponseFormat already set on request is kept. Content that is almost
// JSON, e.g. fenced in a markdown block or truncated, is repaired before
// decoding.
func ChatStructured[T any](ctx context.Context, c *Client, model string, request ai.ChatRequest, opts ...ai.ChatOptions) (*StructuredResponse[T], error) {
	if request.ResponseFormat == nil {
		format, err := ResponseFormatFor[T]()
		if err != nil {
			return nil, err
		}
		request.ResponseFormat = format
	}

	response, err := c.Chat(ctx, model, request, opts...)
	if err != nil {
		return nil, err
	}

	data, err := utils.ParseStringAs[T](stripCodeFence(response.Content))
	if err != nil {
		return &StructuredResponse[T]{Raw: response}, &ai.DecodeError{Model: response.Model, Fragment: response.Content, Err: err}
	}
	return &StructuredResponse[T]{Data: data, Raw: response}, nil
}

func schemaName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "response"
	}
	return strings.ToLower(t.Name())
}

// stripCodeFence removes a surrounding ``` or ```json block.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return content
	}
	inner := trimmed[3 : len(trimmed)-3]
	if newline := strings.IndexByte(inner, '\n'); newline >= 0 && !strings.ContainsAny(inner[:newline], "{[\"") {
		inner = inner[newline+1:]
	}
	return strings.TrimSpace(inner)
}
