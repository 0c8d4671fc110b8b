package forge

import (
	"context"
	"errors"
	"time"
)

// Controller routes each turn of a session to either the Builder
// (Configuring state) or the built sub-agent (Active state), and
// commits the resulting messages and usage back into the session.
//
// The state machine has two states. Configuring→Active happens exactly
// once per build, when the Builder returns a valid AgentConfig.
// Active→Configuring happens only through an explicit Reset; it is
// never inferred from free text.
//
// Builder and Registry are constructor-injected so each session or
// test gets independently configured instances. Options passed to the
// Controller constructors are also applied to the injected Builder and
// Registry, so retry and supported-model policy stays consistent
// across the whole turn path.
type Controller struct {
	builder  *Builder
	registry *Registry
	session  *Session
	opts     options
}

// NewController creates a Controller with a fresh session in the
// Configuring state.
func NewController(builder *Builder, registry *Registry, opts ...Option) *Controller {
	builder.opts.reapply(opts)
	registry.opts.reapply(opts)
	return &Controller{
		builder:  builder,
		registry: registry,
		session:  NewSession(),
		opts:     resolveOptions(opts),
	}
}

// NewControllerWithSession creates a Controller over an existing
// session, e.g. one loaded from a session store. A persisted active
// configuration has no live handle after loading, so the sub-agent is
// rebuilt from it here to restore the handle invariant.
func NewControllerWithSession(builder *Builder, registry *Registry, session *Session, opts ...Option) (*Controller, error) {
	builder.opts.reapply(opts)
	registry.opts.reapply(opts)
	if session.Config != nil && session.agent == nil {
		sub, err := registry.Build(*session.Config)
		if err != nil {
			return nil, err
		}
		session.agent = sub
	}
	return &Controller{
		builder:  builder,
		registry: registry,
		session:  session,
		opts:     resolveOptions(opts),
	}, nil
}

// Session returns the controller's session.
func (c *Controller) Session() *Session {
	return c.session
}

// Active reports whether the session has a built sub-agent.
func (c *Controller) Active() bool {
	return c.session.Active()
}

// Turn processes one user query and returns the response text.
//
// The history/usage update is atomic with the returned text: a
// successful Turn commits exactly the turn's messages and cost; a
// failed Turn leaves the session unchanged, except that completed
// model attempts rejected by schema validation still bill their usage
// (the attempts were actually made) while the history stays untouched.
func (c *Controller) Turn(ctx context.Context, query string) (string, error) {
	if err := c.session.checkInvariant(); err != nil {
		return "", err
	}
	if err := c.opts.limits.Check(c.session.Usage); err != nil {
		return "", err
	}

	snap := c.session.snapshot()

	var (
		text  string
		usage Usage
		err   error
	)
	if c.session.Active() {
		text, usage, err = c.agentTurn(ctx, query)
	} else {
		text, usage, err = c.builderTurn(ctx, query)
	}

	if err != nil {
		c.session.restore(snap)
		if isValidationFailure(err) {
			c.session.Usage.Add(usage)
		}
		return "", err
	}

	c.session.Messages = append(c.session.Messages, UserMessage(query), AssistantMessage(text))
	c.session.Usage.Add(usage)
	c.session.UpdatedAt = time.Now()
	return text, nil
}

// builderTurn negotiates with the Builder and, on a complete
// configuration, builds the sub-agent and transitions to Active.
func (c *Controller) builderTurn(ctx context.Context, query string) (string, Usage, error) {
	outcome, usage, err := c.builder.Negotiate(ctx, query, c.session.Messages)
	if err != nil {
		return "", usage, err
	}

	if outcome.Config == nil {
		// Still negotiating; pass the reply through unchanged.
		return outcome.Reply, usage, nil
	}

	sub, err := c.registry.Build(*outcome.Config)
	if err != nil {
		// No state was mutated; the session stays Configuring.
		return "", usage, err
	}

	cfg := sub.Config()
	c.session.Config = &cfg
	c.session.agent = sub
	return cfg.Summary(), usage, nil
}

// agentTurn routes the query to the active sub-agent, streaming
// fragments to the configured sink when the transport supports it.
func (c *Controller) agentTurn(ctx context.Context, query string) (string, Usage, error) {
	handle := c.session.Agent()
	if handle == nil {
		return "", Usage{}, ErrInvalidState
	}

	var history []Message
	if c.opts.carryHistory {
		history = c.session.Messages
	}

	var (
		resp *Response
		err  error
	)
	if c.opts.sink != nil {
		resp, err = Deliver(handle.RespondStream(ctx, query, history), c.opts.sink)
	} else {
		resp, err = handle.Respond(ctx, query, history)
	}
	if err != nil {
		return "", Usage{}, err
	}
	return resp.Text, resp.Usage, nil
}

// AskAgent routes a query directly to the sub-agent path. Returns
// ErrNoActiveAgent while the session is still Configuring, a retryable
// signal to supply the Builder with more information.
func (c *Controller) AskAgent(ctx context.Context, query string) (string, error) {
	if !c.session.Active() {
		return "", ErrNoActiveAgent
	}
	return c.Turn(ctx, query)
}

// Reset discards the active sub-agent and returns the session to the
// Configuring state. This is the only Active→Configuring transition;
// the discarded configuration stays readable via the Registry's
// display history.
func (c *Controller) Reset() {
	c.registry.Discard()
	c.session.Config = nil
	c.session.agent = nil
	c.session.UpdatedAt = time.Now()
}

// isValidationFailure reports whether the turn failed on validation of
// a completed model response: a schema miss (directly or after
// exhausting retries) or a configuration naming an unsupported model.
// Either way the attempts were actually made and their usage is billed.
func isValidationFailure(err error) bool {
	var verr *SchemaValidationError
	var merr *UnsupportedModelError
	return errors.As(err, &verr) || errors.As(err, &merr) || errors.Is(err, ErrRetriesExhausted)
}
