package forge

import (
	"context"
	"encoding/json"
)

// scriptedCall is one pre-programmed transport result.
type scriptedCall struct {
	resp *Response
	err  error
}

// scriptTransport replays a fixed script of responses and records every
// request it receives.
type scriptTransport struct {
	script []scriptedCall
	calls  []Request
}

func (m *scriptTransport) Complete(_ context.Context, req Request) (*Response, error) {
	m.calls = append(m.calls, req)
	if len(m.script) == 0 {
		return &Response{Usage: callUsage()}, nil
	}
	call := m.script[0]
	m.script = m.script[1:]
	return call.resp, call.err
}

// streamScript is one pre-programmed streaming result: fragments to
// emit, then either a failure or a final response.
type streamScript struct {
	fragments []string
	failWith  error
	resp      *Response
}

// streamTransport adds scripted streaming on top of scriptTransport.
type streamTransport struct {
	scriptTransport
	streams []streamScript
}

func (m *streamTransport) Stream(_ context.Context, req Request) *TextStream {
	m.calls = append(m.calls, req)

	var sc streamScript
	if len(m.streams) > 0 {
		sc = m.streams[0]
		m.streams = m.streams[1:]
	}

	stream, producer := NewTextStream(len(sc.fragments) + 1)
	for _, fragment := range sc.fragments {
		producer.Push(fragment)
	}
	if sc.failWith != nil {
		producer.Fail(sc.failWith)
		return stream
	}
	resp := sc.resp
	if resp == nil {
		resp = &Response{Usage: callUsage()}
	}
	producer.Finish(resp)
	return stream
}

// callUsage is the per-call usage every scripted response bills.
func callUsage() Usage {
	return Usage{Requests: 1, InputTokens: 10, OutputTokens: 5}
}

// structuredResponse wraps v as a structured-output response.
func structuredResponse(v any) *Response {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &Response{Structured: raw, Usage: callUsage()}
}

// builderReply scripts the builder model answering with passthrough text.
func builderReply(text string) *Response {
	return structuredResponse(builderResult{Kind: "reply", Reply: text})
}

// builderConfig scripts the builder model emitting a finished config.
func builderConfig(cfg AgentConfig) *Response {
	return structuredResponse(builderResult{Kind: "agent_config", Config: &cfg})
}

// testConfig is a valid configuration used across tests.
func testConfig() AgentConfig {
	return AgentConfig{
		SystemPrompt: "You are HaikuBot. Answer everything as a haiku.",
		Model:        ModelClaudeHaiku,
		Name:         "HaikuBot",
		Description:  "Answers every question in haiku form",
	}
}
