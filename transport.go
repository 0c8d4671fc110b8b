package forge

import (
	"context"
	"encoding/json"
)

// Request describes one model invocation. When Output is non-nil the
// transport must constrain the response to the declared schema and
// return the raw JSON in Response.Structured.
type Request struct {
	Model     Model
	System    string
	Messages  []Message
	MaxTokens int
	Output    *OutputFormat
}

// Response is the result of one model invocation, including the usage
// accounting for that single call.
type Response struct {
	Text       string
	Structured json.RawMessage
	Usage      Usage
}

// Transport is the opaque model-invocation capability. Implementations
// supply both free-text and schema-constrained generation plus usage
// accounting per call. The core never inspects the wire format.
type Transport interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// StreamingTransport is implemented by transports capable of
// incremental delivery. Stream returns immediately; fragments arrive
// through the TextStream as the transport yields them.
type StreamingTransport interface {
	Transport
	Stream(ctx context.Context, req Request) *TextStream
}
