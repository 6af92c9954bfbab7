// Package openai implements the ai.Adapter contract for the OpenAI-compatible
// /chat/completions protocol. One implementation serves every host speaking
// that protocol: OpenAI itself, Groq, DeepSeek, xAI, Zhipu GLM and OpenRouter.
//
// The hosts differ in small ways (how usage is reported on streams, where
// reasoning text travels, which sampling options are accepted). Those
// differences are captured per kind in [Capabilities] and selected by [New].
//
// Streaming responses are decoded by a [ai.StreamDecoder] that maps each
// "chat.completion.chunk" frame to content, reasoning and tool-call chunks.
package openai
