package ollama

import (
	"encoding/json"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/tidwall/gjson"
)

const chatEndpoint = "api/chat"

// Adapter implements ai.Adapter for Ollama's native chat API.
type Adapter struct{}

// New returns an Ollama adapter.
func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Kind() ai.AdapterKind { return ai.KindOllama }

func (a *Adapter) BuildRequest(target ai.ServiceTarget, request ai.ChatRequest, options ai.ChatOptions, stream bool) (*ai.WebRequest, error) {
	body := requestToOllama(target.Model.Name, request, options, stream)
	return ai.NewJSONRequest(target, chatEndpoint, ai.BearerAuth, body, nil, options)
}

func (a *Adapter) ParseResponse(target ai.ServiceTarget, body []byte, options ai.ChatOptions) (*ai.ChatResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ai.DecodeError{Model: target.Model, Fragment: string(body), Err: ai.ErrInvalidJSON}
	}
	if gjson.GetBytes(body, "error").Exists() {
		return nil, &ai.ProviderError{Model: target.Model, StatusCode: 200, Body: string(body)}
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &ai.DecodeError{Model: target.Model, Fragment: string(body), Err: err}
	}
	return ollamaToGeneric(target.Model, response, options.NormalizesReasoning(true)), nil
}

func (a *Adapter) NewStreamDecoder(target ai.ServiceTarget, options ai.ChatOptions) ai.StreamDecoder {
	return &streamDecoder{model: target.Model, inline: options.NormalizesReasoning(true)}
}
