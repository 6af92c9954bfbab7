package anthropic

import (
	"encoding/json"

	"github.com/leofalp/unillm/providers/ai"
)

const (
	// messagesEndpoint is the path for the Messages API endpoint.
	messagesEndpoint = "messages"

	// anthropicVersion is the required anthropic-version header value.
	anthropicVersion = "2023-06-01"
)

var apiKeyAuth = ai.AuthScheme{Header: "x-api-key"}

// Adapter implements ai.Adapter for Anthropic's Messages API.
type Adapter struct {
	capabilities Capabilities
}

// New returns an Adapter with every optional feature off.
func New() *Adapter {
	return &Adapter{}
}

// WithCapabilities returns a copy of the adapter using capabilities.
func (a *Adapter) WithCapabilities(capabilities Capabilities) *Adapter {
	return &Adapter{capabilities: capabilities}
}

func (a *Adapter) Kind() ai.AdapterKind { return ai.KindAnthropic }

func (a *Adapter) BuildRequest(target ai.ServiceTarget, request ai.ChatRequest, options ai.ChatOptions, stream bool) (*ai.WebRequest, error) {
	body, dropped, err := requestToAnthropic(target.Model.Name, request, options, a.capabilities, stream)
	if err != nil {
		return nil, err
	}

	headers := []ai.Header{{Name: "anthropic-version", Value: anthropicVersion}}
	if beta := a.capabilities.betaHeaderValue(body.Thinking != nil && len(body.Tools) > 0); beta != "" {
		headers = append(headers, ai.Header{Name: "anthropic-beta", Value: beta})
	}

	webRequest, err := ai.NewJSONRequest(target, messagesEndpoint, apiKeyAuth, body, headers, options)
	if err != nil {
		return nil, err
	}
	webRequest.Dropped = dropped
	return webRequest, nil
}

func (a *Adapter) ParseResponse(target ai.ServiceTarget, body []byte, options ai.ChatOptions) (*ai.ChatResponse, error) {
	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &ai.DecodeError{Model: target.Model, Fragment: string(body), Err: err}
	}
	if response.Type == "error" {
		return nil, &ai.ProviderError{Model: target.Model, StatusCode: 200, Body: string(body)}
	}
	return anthropicToGeneric(target.Model, response), nil
}

func (a *Adapter) NewStreamDecoder(target ai.ServiceTarget, options ai.ChatOptions) ai.StreamDecoder {
	return &streamDecoder{model: target.Model, toolIndexByBlock: make(map[int]int)}
}
