// Package client sends chat requests to any supported provider through one
// API.
//
// A [Client] owns the HTTP client, the resolver chain that turns a model name
// into an ai.ServiceTarget, the adapter for every ai.AdapterKind and an
// optional middleware chain. It is immutable after [New] and safe for
// concurrent use.
//
//	c, err := client.New(client.WithDefaultOptions(ai.ChatOptions{MaxTokens: ai.Tokens(512)}))
//	response, err := c.Chat(ctx, "claude-3-haiku-20240307", ai.ChatRequest{
//	    Messages: []ai.Message{ai.NewUserMessage("Hello")},
//	})
//
// Streaming calls return an *ai.ChatStream that must be drained or abandoned
// with a loop break; the response body is closed either way.
package client
