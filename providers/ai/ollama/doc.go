// Package ollama implements ai.Adapter for Ollama's native /api/chat
// endpoint.
//
// Streams are newline-delimited JSON; the line with "done": true carries
// prompt_eval_count and eval_count. No credential is needed, but a bearer
// token is sent when the target has one (Ollama behind an authenticating
// proxy). Inline <think> markup is split into reasoning unless
// NormalizeReasoningContent is turned off.
package ollama
