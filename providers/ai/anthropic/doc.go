// Package anthropic implements ai.Adapter for Anthropic's Messages API.
//
// Requests authenticate with the x-api-key header and pin the
// anthropic-version header. The system prompt travels outside the message
// list, consecutive tool results are merged into one user turn and
// max_tokens is always sent because the API requires it.
//
// Streams follow the message_start, content_block_*, message_delta and
// message_stop lifecycle. An "error" event inside the stream ends it with an
// *ai.ProviderError.
package anthropic
