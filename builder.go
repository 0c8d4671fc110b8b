package forge

import (
	"context"
	"errors"
	"fmt"
)

// builderSystemPrompt instructs the builder model to interview the
// user and emit either a complete agent configuration or a clarifying
// conversational reply.
const builderSystemPrompt = `You are an expert at designing AI agents. Your job is to:

1. Understand what kind of agent the user wants based on their description
2. Design an appropriate system prompt that will make the agent behave as desired
3. Choose an appropriate model for the agent's needs
4. Create a clear name and description for the agent

When designing system prompts:
- Make them clear and specific
- Include any necessary constraints or guidelines
- Define the agent's role and capabilities
- Set the appropriate tone and style

Respond with kind "agent_config" and a complete configuration once you
have enough information. If anything essential is still unclear, respond
with kind "reply" and a clarifying question instead.

Always validate that your configurations make sense for the user's needs.`

// builderResult is the tagged union the builder model is constrained
// to. Exactly one of Config or Reply is meaningful, selected by Kind.
type builderResult struct {
	Kind   string       `json:"kind" jsonschema:"required,enum=agent_config,enum=reply,description=Whether this response carries a finished configuration or a conversational reply"`
	Config *AgentConfig `json:"config,omitempty" jsonschema:"description=The finished agent configuration when kind is agent_config"`
	Reply  string       `json:"reply,omitempty" jsonschema:"description=Conversational text when kind is reply"`
}

// Outcome is the result of one negotiation step. Exactly one branch is
// set: a complete configuration ready to build, or passthrough reply
// text that keeps the conversation in the Configuring state.
type Outcome struct {
	Config *AgentConfig
	Reply  string
}

// Builder drives the structured-output conversation that produces a
// sub-agent configuration. It is side-effect free with respect to
// session state; the Controller commits history and usage after a
// successful turn.
type Builder struct {
	transport Transport
	opts      options
	format    OutputFormat
}

// NewBuilder creates a Builder over the given transport.
func NewBuilder(transport Transport, opts ...Option) *Builder {
	return &Builder{
		transport: transport,
		opts:      resolveOptions(opts),
		format:    NewOutputFormatType[builderResult]("builder_result"),
	}
}

// Negotiate runs one negotiation step for the given query. The
// supplied history preserves context across turns but is not mutated.
// The returned Usage covers every attempt actually made, including
// failed validation retries.
//
// Structured output that fails schema validation is retried up to the
// configured bound; exhaustion surfaces ErrRetriesExhausted wrapping
// the last validation error.
func (b *Builder) Negotiate(ctx context.Context, query string, history []Message) (*Outcome, Usage, error) {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, UserMessage(query))

	req := Request{
		Model:     b.opts.model,
		System:    b.opts.systemPrompt,
		Messages:  messages,
		MaxTokens: b.opts.maxOutputTokens,
		Output:    &b.format,
	}

	var total Usage
	var lastErr error

	for attempt := 0; attempt <= b.opts.maxRetries; attempt++ {
		resp, err := b.transport.Complete(ctx, req)
		if err != nil {
			// Transport errors pass through unmodified; no re-prompt.
			return nil, total, err
		}
		total.Add(resp.Usage)

		outcome, err := b.interpret(resp)
		if err == nil {
			return outcome, total, nil
		}

		var verr *SchemaValidationError
		if !errors.As(err, &verr) {
			return nil, total, err
		}
		lastErr = err

		// Carry the failure back so the retry can correct itself
		// instead of replaying the identical request.
		req.Messages = append(req.Messages,
			AssistantMessage(attemptText(resp)),
			UserMessage(fmt.Sprintf("That response failed validation: %s. Answer again, strictly following the required schema.", verr.Reason)))
	}

	return nil, total, fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

// attemptText renders a rejected response for the correction exchange.
func attemptText(resp *Response) string {
	if len(resp.Structured) > 0 {
		return string(resp.Structured)
	}
	if resp.Text != "" {
		return resp.Text
	}
	return "(empty response)"
}

// interpret decodes and validates the structured builder result.
func (b *Builder) interpret(resp *Response) (*Outcome, error) {
	result, err := DecodeOutput[builderResult](b.format, resp.Structured)
	if err != nil {
		return nil, err
	}

	switch result.Kind {
	case "agent_config":
		if result.Config == nil {
			return nil, &SchemaValidationError{Format: b.format.Name, Reason: "kind agent_config without a config payload"}
		}
		if err := result.Config.Validate(b.opts.supported); err != nil {
			// Missing fields are validation failures worth a re-prompt;
			// an unsupported model is deterministic and surfaced as-is.
			return nil, err
		}
		return &Outcome{Config: result.Config}, nil

	case "reply":
		if result.Reply == "" {
			return nil, &SchemaValidationError{Format: b.format.Name, Reason: "kind reply without reply text"}
		}
		return &Outcome{Reply: result.Reply}, nil

	default:
		return nil, &SchemaValidationError{Format: b.format.Name, Reason: fmt.Sprintf("unknown kind %q", result.Kind)}
	}
}

// Format exposes the builder's output format (for transports and tests).
func (b *Builder) Format() OutputFormat {
	return b.format
}
