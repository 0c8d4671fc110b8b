package forge

import "strings"

// TextStream is an iterator over text fragments of a single response.
// Usage:
//
//	stream := transport.Stream(ctx, req)
//	for stream.Next() {
//	    fmt.Print(stream.Current())
//	}
//	if err := stream.Err(); err != nil {
//	    // handle error; any accumulated fragments must be discarded
//	}
type TextStream struct {
	fragments chan string
	current   string
	done      bool

	// err and resp are written by the producer before closing the
	// channel; the close is the happens-before edge for readers.
	err  error
	resp *Response
}

// NewTextStream creates a stream and the producer handle that feeds it.
// bufSize <= 0 uses DefaultStreamBufferSize.
func NewTextStream(bufSize int) (*TextStream, *StreamProducer) {
	if bufSize <= 0 {
		bufSize = DefaultStreamBufferSize
	}
	s := &TextStream{fragments: make(chan string, bufSize)}
	return s, &StreamProducer{stream: s}
}

// Next advances to the next fragment. Returns false when the stream is
// exhausted or failed; check Err afterward.
func (s *TextStream) Next() bool {
	if s.done {
		return false
	}
	fragment, ok := <-s.fragments
	if !ok {
		s.done = true
		return false
	}
	s.current = fragment
	return true
}

// Current returns the most recent fragment returned by Next.
func (s *TextStream) Current() string {
	return s.current
}

// Err returns the error that terminated the stream, if any.
// Only valid after Next has returned false.
func (s *TextStream) Err() error {
	return s.err
}

// Response returns the final response with per-call usage. Only valid
// after Next has returned false with a nil Err.
func (s *TextStream) Response() *Response {
	return s.resp
}

// StreamProducer is the write side of a TextStream. Exactly one of
// Finish or Fail must be called, after which Push must not be.
type StreamProducer struct {
	stream *TextStream
}

// Push emits one fragment to the consumer.
func (p *StreamProducer) Push(fragment string) {
	p.stream.fragments <- fragment
}

// Finish completes the stream successfully with the final response.
func (p *StreamProducer) Finish(resp *Response) {
	p.stream.resp = resp
	close(p.stream.fragments)
}

// Fail terminates the stream with an error. The consumer must discard
// any fragments it accumulated.
func (p *StreamProducer) Fail(err error) {
	p.stream.err = err
	close(p.stream.fragments)
}

// FragmentSink receives fragments as they arrive during delivery.
type FragmentSink func(fragment string)

// Deliver drains a TextStream, forwarding every fragment to sink (if
// non-nil) and accumulating the full text. The returned Response.Text
// is the in-order concatenation of all fragments, so incremental and
// batch delivery observe identical text. On stream failure the
// accumulation is discarded and only the error is returned.
func Deliver(stream *TextStream, sink FragmentSink) (*Response, error) {
	var b strings.Builder
	for stream.Next() {
		fragment := stream.Current()
		if sink != nil {
			sink(fragment)
		}
		b.WriteString(fragment)
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}

	resp := stream.Response()
	if resp == nil {
		resp = &Response{}
	}
	resp.Text = b.String()
	return resp, nil
}

// BatchStream wraps an already-complete response as a single-fragment
// stream, for transports without incremental delivery.
func BatchStream(resp *Response, err error) *TextStream {
	stream, producer := NewTextStream(1)
	if err != nil {
		producer.Fail(err)
		return stream
	}
	if resp.Text != "" {
		producer.Push(resp.Text)
	}
	producer.Finish(resp)
	return stream
}
