package gemini

import (
	"encoding/json"
	"strings"

	"github.com/leofalp/unillm/providers/ai"
	"github.com/tidwall/gjson"
)

var apiKeyAuth = ai.AuthScheme{Header: "x-goog-api-key"}

// Adapter implements ai.Adapter for the Gemini generateContent API.
type Adapter struct{}

// New returns a Gemini adapter.
func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Kind() ai.AdapterKind { return ai.KindGemini }

// servicePath returns the method path for a model. Names given with the
// "models/" resource prefix are accepted.
func servicePath(model string, stream bool) string {
	path := "models/" + strings.TrimPrefix(model, "models/")
	if stream {
		return path + ":streamGenerateContent?alt=sse"
	}
	return path + ":generateContent"
}

func (a *Adapter) BuildRequest(target ai.ServiceTarget, request ai.ChatRequest, options ai.ChatOptions, stream bool) (*ai.WebRequest, error) {
	body := requestToGemini(request, options)
	return ai.NewJSONRequest(target, servicePath(target.Model.Name, stream), apiKeyAuth, body, nil, options)
}

func (a *Adapter) ParseResponse(target ai.ServiceTarget, body []byte, options ai.ChatOptions) (*ai.ChatResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ai.DecodeError{Model: target.Model, Fragment: string(body), Err: ai.ErrInvalidJSON}
	}
	if gjson.GetBytes(body, "error").Exists() {
		return nil, &ai.ProviderError{Model: target.Model, StatusCode: 200, Body: string(body)}
	}

	var response generateContentResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &ai.DecodeError{Model: target.Model, Fragment: string(body), Err: err}
	}
	return geminiToGeneric(target.Model, response)
}

func (a *Adapter) NewStreamDecoder(target ai.ServiceTarget, options ai.ChatOptions) ai.StreamDecoder {
	return &streamDecoder{model: target.Model}
}
