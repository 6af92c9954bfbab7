// Package gemini implements ai.Adapter for Google's Gemini generative
// language API.
//
// Non-streaming calls use models/{model}:generateContent and streaming calls
// use models/{model}:streamGenerateContent?alt=sse. The key is sent in the
// x-goog-api-key header.
//
// Parts flagged as thoughts are routed to the reasoning channel and
// thoughtsTokenCount is folded into the completion tokens. Gemini does not
// identify function calls, so tool call IDs are generated.
package gemini
