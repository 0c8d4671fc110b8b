package forge

import "context"

// SubAgent is an instantiated conversational agent parameterized by a
// frozen configuration. It answers queries through the transport it was
// built with and holds no session state of its own.
type SubAgent struct {
	id        string
	config    AgentConfig
	transport Transport
	maxTokens int
}

// ID returns the sub-agent's unique identifier.
func (a *SubAgent) ID() string {
	return a.id
}

// Config returns a copy of the immutable configuration the agent was
// built from.
func (a *SubAgent) Config() AgentConfig {
	return a.config
}

// Respond answers a query in one blocking call. The supplied history
// gives the agent context from the configuring dialogue; pass nil to
// start it fresh.
func (a *SubAgent) Respond(ctx context.Context, query string, history []Message) (*Response, error) {
	return a.transport.Complete(ctx, a.request(query, history))
}

// RespondStream answers a query with incremental fragment delivery.
// Transports without streaming support fall back to one blocking call
// emitted as a single fragment.
func (a *SubAgent) RespondStream(ctx context.Context, query string, history []Message) *TextStream {
	req := a.request(query, history)
	if st, ok := a.transport.(StreamingTransport); ok {
		return st.Stream(ctx, req)
	}
	return BatchStream(a.transport.Complete(ctx, req))
}

func (a *SubAgent) request(query string, history []Message) Request {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, UserMessage(query))

	return Request{
		Model:     a.config.Model,
		System:    a.config.SystemPrompt,
		Messages:  messages,
		MaxTokens: a.maxTokens,
	}
}

// Registry holds at most one live sub-agent per session. A successful
// Build replaces any prior handle outright; the replaced handle holds
// no external resources and needs no cleanup. Prior configurations are
// retained for display only, never reused.
type Registry struct {
	transport Transport
	opts      options

	current *SubAgent
	past    []AgentConfig
}

// NewRegistry creates a Registry that builds sub-agents over the given
// transport.
func NewRegistry(transport Transport, opts ...Option) *Registry {
	return &Registry{
		transport: transport,
		opts:      resolveOptions(opts),
	}
}

// Build validates the configuration and instantiates a new sub-agent,
// replacing any prior one. Atomic: an unsupported model fails with
// *UnsupportedModelError before any state changes.
func (r *Registry) Build(config AgentConfig) (*SubAgent, error) {
	if err := config.Validate(r.opts.supported); err != nil {
		return nil, err
	}

	sub := &SubAgent{
		id:        generateID(PrefixAgent),
		config:    config,
		transport: r.transport,
		maxTokens: r.opts.maxOutputTokens,
	}

	if r.current != nil {
		r.past = append(r.past, r.current.config)
	}
	r.current = sub
	return sub, nil
}

// Current returns the live sub-agent, or nil when none has been built.
func (r *Registry) Current() *SubAgent {
	return r.current
}

// Discard drops the live sub-agent, retaining its configuration in the
// display history. Used by the explicit "create new agent" command.
func (r *Registry) Discard() {
	if r.current != nil {
		r.past = append(r.past, r.current.config)
		r.current = nil
	}
}

// PastConfigs returns configurations of previously replaced or
// discarded sub-agents, oldest first.
func (r *Registry) PastConfigs() []AgentConfig {
	return r.past
}
