package openai

import (
	"github.com/leofalp/unillm/providers/ai"
)

const chatCompletionsEndpoint = "chat/completions"

// Adapter implements ai.Adapter for one OpenAI-compatible host.
type Adapter struct {
	kind         ai.AdapterKind
	capabilities Capabilities
}

// New returns the adapter for kind with its built-in capabilities.
func New(kind ai.AdapterKind) *Adapter {
	return &Adapter{kind: kind, capabilities: CapabilitiesFor(kind)}
}

// WithCapabilities overrides the capabilities, for self-hosted gateways that
// deviate from the host they impersonate.
func (a *Adapter) WithCapabilities(capabilities Capabilities) *Adapter {
	copied := *a
	copied.capabilities = capabilities
	return &copied
}

func (a *Adapter) Kind() ai.AdapterKind { return a.kind }

// Capabilities returns the feature set the adapter renders requests for.
func (a *Adapter) Capabilities() Capabilities { return a.capabilities }

func (a *Adapter) BuildRequest(target ai.ServiceTarget, request ai.ChatRequest, options ai.ChatOptions, stream bool) (*ai.WebRequest, error) {
	body, dropped := requestToChatCompletion(target.Model.Name, request, options, a.capabilities, stream)

	webRequest, err := ai.NewJSONRequest(target, chatCompletionsEndpoint, ai.BearerAuth, body, nil, options)
	if err != nil {
		return nil, err
	}
	webRequest.Dropped = dropped
	return webRequest, nil
}

func (a *Adapter) ParseResponse(target ai.ServiceTarget, body []byte, options ai.ChatOptions) (*ai.ChatResponse, error) {
	return chatCompletionToGeneric(target.Model, body, options.NormalizesReasoning(a.capabilities.InlineThinkTags))
}

func (a *Adapter) NewStreamDecoder(target ai.ServiceTarget, options ai.ChatOptions) ai.StreamDecoder {
	return &streamDecoder{
		model:  target.Model,
		inline: options.NormalizesReasoning(a.capabilities.InlineThinkTags),
	}
}
