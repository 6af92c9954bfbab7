// Package ai defines the provider-agnostic vocabulary shared by every adapter
// and by the client: model names and adapter kinds, service targets and their
// auth material, chat requests and options, responses, usage and the error
// taxonomy.
//
// A raw model name such as "claude-3-haiku-20240307" or "groq::llama3-8b-8192"
// is classified into an [AdapterKind] by [ClassifyModel]. Each kind has a
// default [Endpoint] and [AuthData], which together form a [ServiceTarget].
//
// Adapters implement [Adapter]: they turn a request into a [WebRequest],
// parse whole responses into [ChatResponse] and provide a [StreamDecoder]
// that maps provider frames to [StreamEvent] values. [NewDemuxStream] drives
// a decoder over a response body and guarantees one Start, any number of
// chunks and one End per stream.
package ai
