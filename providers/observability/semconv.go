package observability

// Attribute keys, span names and metric names shared by every backend.

// --- LLM call attributes ---

const (
	AttrLLMProvider     = "llm.provider" // adapter kind, e.g. "anthropic"
	AttrLLMModel        = "llm.model"    // model name sent on the wire
	AttrLLMEndpoint     = "llm.endpoint"
	AttrLLMRequestID    = "llm.request.id"
	AttrLLMResponseID   = "llm.response.id"
	AttrLLMFinishReason = "llm.finish_reason"
	AttrLLMStream       = "llm.stream"
	AttrLLMDropped      = "llm.dropped_options"
)

// --- Token usage ---

const (
	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- token counts, not credentials
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101
	AttrLLMTokensReasoning  = "llm.tokens.reasoning"  // #nosec G101
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101
)

// --- Request ---

const (
	AttrRequestMessagesCount = "request.messages_count"
	AttrRequestToolsCount    = "request.tools_count"
)

// --- HTTP ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPURL              = "http.url"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- General ---

const (
	AttrError             = "error"
	AttrErrorType         = "error.type" // ai.ErrorClass of a failure
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span names ---

const (
	SpanClientChat   = "client.chat"
	SpanClientStream = "client.chat_stream"
)

// --- Event names ---

const (
	EventStreamStart = "llm.stream.start"
	EventStreamEnd   = "llm.stream.end"
)

// --- Metric names ---

const (
	MetricClientRequestCount     = "unillm.client.request.count"
	MetricClientRequestDuration  = "unillm.client.request.duration" // seconds
	MetricClientTokensTotal      = "unillm.client.tokens.total"
	MetricClientTokensPrompt     = "unillm.client.tokens.prompt"
	MetricClientTokensCompletion = "unillm.client.tokens.completion"
	MetricClientStreamChunks     = "unillm.client.stream.chunks"
)
