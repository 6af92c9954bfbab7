package client

import (
	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/ai/anthropic"
	"github.com/leofalp/unillm/providers/ai/cohere"
	"github.com/leofalp/unillm/providers/ai/gemini"
	"github.com/leofalp/unillm/providers/ai/ollama"
	"github.com/leofalp/unillm/providers/ai/openai"
)

// defaultAdapters returns a fresh table with one adapter per kind. The
// OpenAI-compatible kinds share one implementation parameterized by kind.
func defaultAdapters() map[ai.AdapterKind]ai.Adapter {
	return map[ai.AdapterKind]ai.Adapter{
		ai.KindOpenAI:     openai.New(ai.KindOpenAI),
		ai.KindGroq:       openai.New(ai.KindGroq),
		ai.KindDeepSeek:   openai.New(ai.KindDeepSeek),
		ai.KindXai:        openai.New(ai.KindXai),
		ai.KindZhipu:      openai.New(ai.KindZhipu),
		ai.KindOpenRouter: openai.New(ai.KindOpenRouter),
		ai.KindAnthropic:  anthropic.New(),
		ai.KindGemini:     gemini.New(),
		ai.KindCohere:     cohere.New(),
		ai.KindOllama:     ollama.New(),
	}
}
