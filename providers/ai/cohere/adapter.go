package cohere

import (
	"encoding/json"

	"github.com/leofalp/unillm/providers/ai"
)

const chatEndpoint = "chat"

// Adapter implements ai.Adapter for the Cohere v2 Chat API.
type Adapter struct{}

// New returns a Cohere adapter.
func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Kind() ai.AdapterKind { return ai.KindCohere }

func (a *Adapter) BuildRequest(target ai.ServiceTarget, request ai.ChatRequest, options ai.ChatOptions, stream bool) (*ai.WebRequest, error) {
	body := requestToCohere(target.Model.Name, request, options, stream)
	return ai.NewJSONRequest(target, chatEndpoint, ai.BearerAuth, body, nil, options)
}

func (a *Adapter) ParseResponse(target ai.ServiceTarget, body []byte, options ai.ChatOptions) (*ai.ChatResponse, error) {
	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &ai.DecodeError{Model: target.Model, Fragment: string(body), Err: err}
	}
	return cohereToGeneric(target.Model, response), nil
}

func (a *Adapter) NewStreamDecoder(target ai.ServiceTarget, options ai.ChatOptions) ai.StreamDecoder {
	return &streamDecoder{model: target.Model}
}
