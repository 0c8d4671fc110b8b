package forge

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/alt-sl/agentforge/internal/budget"
)

// AnthropicTransport is the production Transport over the Anthropic
// Messages API. Structured output uses the hidden tool pattern: a tool
// carrying the desired JSON Schema is injected and tool_choice forced
// to it.
type AnthropicTransport struct {
	client  *anthropic.Client
	pricing map[string]budget.ModelPricing
	bufSize int
}

var _ StreamingTransport = (*AnthropicTransport)(nil)

// NewAnthropicTransport creates a transport using ambient API
// credentials (ANTHROPIC_API_KEY).
func NewAnthropicTransport(opts ...Option) *AnthropicTransport {
	o := resolveOptions(opts)
	client := anthropic.NewClient()
	return &AnthropicTransport{
		client:  &client,
		pricing: budget.DefaultPricing,
		bufSize: o.streamBufferSize,
	}
}

// Complete performs one blocking model invocation.
func (t *AnthropicTransport) Complete(ctx context.Context, req Request) (*Response, error) {
	params := t.params(req)
	msg, err := t.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}
	return t.response(msg, req), nil
}

// Stream performs a model invocation with incremental text delivery.
// Fragments are pushed as the API yields deltas; the final Response
// carries the call's usage.
func (t *AnthropicTransport) Stream(ctx context.Context, req Request) *TextStream {
	stream, producer := NewTextStream(t.bufSize)
	params := t.params(req)

	go func() {
		sse := t.client.Messages.NewStreaming(ctx, params)
		defer sse.Close()

		msg := anthropic.Message{}
		for sse.Next() {
			event := sse.Current()
			if err := msg.Accumulate(event); err != nil {
				producer.Fail(err)
				return
			}
			if event.Type == "content_block_delta" && event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				producer.Push(event.Delta.Text)
			}
		}
		if err := sse.Err(); err != nil {
			producer.Fail(err)
			return
		}
		producer.Finish(t.response(&msg, req))
	}()

	return stream
}

// params converts a transport-neutral Request into API parameters.
func (t *AnthropicTransport) params(req Request) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxOutputTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	if req.Output != nil {
		hiddenTool := anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        req.Output.Name,
				Description: param.NewOpt("Return structured output matching the schema"),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: req.Output.Properties,
					Required:   req.Output.Required,
				},
			},
		}
		params.Tools = append(params.Tools, hiddenTool)
		params.ToolChoice = anthropic.ToolChoiceParamOfTool(req.Output.Name)
	}

	return params
}

// response converts an API message into a transport-neutral Response
// with per-call usage and cost.
func (t *AnthropicTransport) response(msg *anthropic.Message, req Request) *Response {
	resp := &Response{
		Usage: Usage{
			Requests:     1,
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}

	if pricing, ok := t.pricing[string(req.Model)]; ok {
		resp.Usage.Cost = pricing.Cost(msg.Usage.InputTokens, msg.Usage.OutputTokens)
	}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if resp.Text == "" {
				resp.Text = block.Text
			}
		case "tool_use":
			if req.Output != nil && block.Name == req.Output.Name {
				resp.Structured = json.RawMessage(block.Input)
			}
		}
	}

	return resp
}
