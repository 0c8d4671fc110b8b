package forge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestController wires a Builder, Registry, and Controller over one
// shared transport so scripted calls play back in turn order.
func newTestController(transport Transport, opts ...Option) *Controller {
	return NewController(NewBuilder(transport), NewRegistry(transport), opts...)
}

func TestTurnBuildsAgent(t *testing.T) {
	transport := &scriptTransport{script: []scriptedCall{
		{resp: builderReply("What topic should it cover?")},
		{resp: builderConfig(testConfig())},
	}}
	ctrl := newTestController(transport)

	// Turn 1: the builder needs more information; state stays Configuring.
	text, err := ctrl.Turn(context.Background(), "make me an agent")
	require.NoError(t, err)
	assert.Equal(t, "What topic should it cover?", text)
	assert.False(t, ctrl.Active())

	// Turn 2: complete configuration arrives; state becomes Active.
	text, err = ctrl.Turn(context.Background(), "haiku, please")
	require.NoError(t, err)
	assert.Contains(t, text, "Created agent configuration:")
	assert.Contains(t, text, "Name: HaikuBot")
	assert.Contains(t, text, "Configuration complete!")
	assert.True(t, ctrl.Active())

	session := ctrl.Session()
	require.NotNil(t, session.Config)
	assert.Equal(t, "HaikuBot", session.Config.Name)
	require.Len(t, session.Messages, 4)
	assert.Equal(t, UserMessage("haiku, please"), session.Messages[2])
	assert.Equal(t, AssistantMessage(text), session.Messages[3])
	assert.Equal(t, int64(2), session.Usage.Requests)
}

func TestTurnRoutesToActiveAgent(t *testing.T) {
	transport := &scriptTransport{script: []scriptedCall{
		{resp: builderConfig(testConfig())},
		{resp: &Response{Text: "frog leaps in spring", Usage: callUsage()}},
	}}
	ctrl := newTestController(transport)

	_, err := ctrl.Turn(context.Background(), "a haiku bot")
	require.NoError(t, err)

	text, err := ctrl.Turn(context.Background(), "write about frogs")
	require.NoError(t, err)
	assert.Equal(t, "frog leaps in spring", text)

	// The second call went to the sub-agent with its own system prompt
	// and the configuring-phase history carried along.
	require.Len(t, transport.calls, 2)
	req := transport.calls[1]
	assert.Equal(t, testConfig().SystemPrompt, req.System)
	assert.Equal(t, ModelClaudeHaiku, req.Model)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, UserMessage("write about frogs"), req.Messages[2])

	session := ctrl.Session()
	assert.Len(t, session.Messages, 4)
	assert.Equal(t, int64(2), session.Usage.Requests)
}

func TestTurnWithoutCarryHistory(t *testing.T) {
	transport := &scriptTransport{script: []scriptedCall{
		{resp: builderConfig(testConfig())},
		{resp: &Response{Text: "ok", Usage: callUsage()}},
	}}
	ctrl := newTestController(transport, WithCarryHistory(false))

	_, err := ctrl.Turn(context.Background(), "a haiku bot")
	require.NoError(t, err)
	_, err = ctrl.Turn(context.Background(), "write about frogs")
	require.NoError(t, err)

	req := transport.calls[1]
	require.Len(t, req.Messages, 1)
	assert.Equal(t, UserMessage("write about frogs"), req.Messages[0])
}

func TestTurnUnsupportedModelStaysConfiguring(t *testing.T) {
	bad := testConfig()
	bad.Model = "gpt-4"
	transport := &scriptTransport{script: []scriptedCall{
		{resp: builderConfig(bad)},
		{resp: builderReply("let me try again")},
	}}
	ctrl := newTestController(transport)

	_, err := ctrl.Turn(context.Background(), "a haiku bot")
	var merr *UnsupportedModelError
	require.ErrorAs(t, err, &merr)

	// No transition, no history commit; the completed attempt is billed.
	assert.False(t, ctrl.Active())
	assert.Empty(t, ctrl.Session().Messages)
	assert.Equal(t, int64(1), ctrl.Session().Usage.Requests)

	// The next turn still goes to the builder.
	text, err := ctrl.Turn(context.Background(), "use a supported model")
	require.NoError(t, err)
	assert.Equal(t, "let me try again", text)
	assert.False(t, ctrl.Active())
}

func TestControllerOptionsReachComponents(t *testing.T) {
	transport := &scriptTransport{script: []scriptedCall{
		{resp: builderConfig(testConfig())},
	}}

	// Builder and Registry are constructed bare; the supported-model
	// restriction arrives through the Controller and must still hold.
	builder := NewBuilder(transport)
	registry := NewRegistry(transport)
	ctrl := NewController(builder, registry, WithSupportedModels(ModelClaudeSonnet))

	_, err := ctrl.Turn(context.Background(), "a haiku bot")
	var merr *UnsupportedModelError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, []Model{ModelClaudeSonnet}, merr.Supported)
	assert.False(t, ctrl.Active())
	assert.Len(t, transport.calls, 1)
}

func TestTurnValidationFailureBillsUsageOnly(t *testing.T) {
	transport := &scriptTransport{script: []scriptedCall{
		{resp: structuredResponse(builderResult{Kind: "garbage"})},
		{resp: structuredResponse(builderResult{Kind: "garbage"})},
	}}
	ctrl := newTestController(transport, WithMaxRetries(1))

	_, err := ctrl.Turn(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrRetriesExhausted)

	// Both rejected attempts are billed; the history stays untouched.
	session := ctrl.Session()
	assert.Empty(t, session.Messages)
	assert.Equal(t, int64(2), session.Usage.Requests)
	assert.Equal(t, int64(30), session.Usage.TotalTokens())
}

func TestTurnTransportErrorRollsBackFully(t *testing.T) {
	boom := errors.New("connection reset")
	transport := &scriptTransport{script: []scriptedCall{
		{err: boom},
	}}
	ctrl := newTestController(transport)

	_, err := ctrl.Turn(context.Background(), "hi")
	assert.ErrorIs(t, err, boom)

	session := ctrl.Session()
	assert.Empty(t, session.Messages)
	assert.Equal(t, int64(0), session.Usage.Requests)
}

func TestTurnStreamsToSink(t *testing.T) {
	transport := &streamTransport{
		scriptTransport: scriptTransport{script: []scriptedCall{
			{resp: builderConfig(testConfig())},
		}},
		streams: []streamScript{
			{fragments: []string{"old pond\n", "a frog ", "leaps in"}, resp: &Response{Usage: callUsage()}},
		},
	}

	var fragments []string
	ctrl := newTestController(transport, WithFragmentSink(func(fragment string) {
		fragments = append(fragments, fragment)
	}))

	_, err := ctrl.Turn(context.Background(), "a haiku bot")
	require.NoError(t, err)

	text, err := ctrl.Turn(context.Background(), "write about frogs")
	require.NoError(t, err)

	// Delivered text is exactly the in-order concatenation of fragments.
	assert.Equal(t, []string{"old pond\n", "a frog ", "leaps in"}, fragments)
	assert.Equal(t, "old pond\na frog leaps in", text)
	assert.Equal(t, AssistantMessage(text), ctrl.Session().Messages[3])
}

func TestTurnMidStreamFailureRollsBack(t *testing.T) {
	boom := errors.New("stream interrupted")
	transport := &streamTransport{
		scriptTransport: scriptTransport{script: []scriptedCall{
			{resp: builderConfig(testConfig())},
		}},
		streams: []streamScript{
			{fragments: []string{"old ", "pond"}, failWith: boom},
		},
	}

	var fragments []string
	ctrl := newTestController(transport, WithFragmentSink(func(fragment string) {
		fragments = append(fragments, fragment)
	}))

	_, err := ctrl.Turn(context.Background(), "a haiku bot")
	require.NoError(t, err)
	before := len(ctrl.Session().Messages)
	usage := ctrl.Session().Usage

	_, err = ctrl.Turn(context.Background(), "write about frogs")
	assert.ErrorIs(t, err, boom)

	// Fragments reached the sink, but the session saw none of the turn.
	assert.Equal(t, []string{"old ", "pond"}, fragments)
	assert.Len(t, ctrl.Session().Messages, before)
	assert.Equal(t, usage, ctrl.Session().Usage)
	assert.True(t, ctrl.Active(), "the agent survives a failed turn")
}

func TestAskAgentWhileConfiguring(t *testing.T) {
	ctrl := newTestController(&scriptTransport{})

	_, err := ctrl.AskAgent(context.Background(), "hello?")
	assert.ErrorIs(t, err, ErrNoActiveAgent)
}

func TestAskAgentWhenActive(t *testing.T) {
	transport := &scriptTransport{script: []scriptedCall{
		{resp: builderConfig(testConfig())},
		{resp: &Response{Text: "here you go", Usage: callUsage()}},
	}}
	ctrl := newTestController(transport)

	_, err := ctrl.Turn(context.Background(), "a haiku bot")
	require.NoError(t, err)

	text, err := ctrl.AskAgent(context.Background(), "write one")
	require.NoError(t, err)
	assert.Equal(t, "here you go", text)
}

func TestResetReturnsToConfiguring(t *testing.T) {
	transport := &scriptTransport{script: []scriptedCall{
		{resp: builderConfig(testConfig())},
		{resp: builderReply("starting over")},
	}}
	registry := NewRegistry(transport)
	ctrl := NewController(NewBuilder(transport), registry)

	_, err := ctrl.Turn(context.Background(), "a haiku bot")
	require.NoError(t, err)
	require.True(t, ctrl.Active())

	ctrl.Reset()
	assert.False(t, ctrl.Active())
	assert.Nil(t, ctrl.Session().Config)
	require.Len(t, registry.PastConfigs(), 1)
	assert.Equal(t, "HaikuBot", registry.PastConfigs()[0].Name)

	// History survives the reset and the next turn goes to the builder.
	assert.Len(t, ctrl.Session().Messages, 2)
	text, err := ctrl.Turn(context.Background(), "something new")
	require.NoError(t, err)
	assert.Equal(t, "starting over", text)
}

func TestTurnUsageLimits(t *testing.T) {
	transport := &scriptTransport{}
	ctrl := newTestController(transport, WithUsageLimits(UsageLimits{RequestLimit: 1}))

	ctrl.Session().Usage.Requests = 1

	_, err := ctrl.Turn(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrRequestLimit)
	assert.Empty(t, transport.calls, "limit check happens before any model call")
}

func TestTurnTokenLimit(t *testing.T) {
	ctrl := newTestController(&scriptTransport{}, WithUsageLimits(UsageLimits{TotalTokensLimit: 100}))
	ctrl.Session().Usage.InputTokens = 80
	ctrl.Session().Usage.OutputTokens = 20

	_, err := ctrl.Turn(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrTokenLimit)
}

func TestTurnInvariantViolation(t *testing.T) {
	ctrl := newTestController(&scriptTransport{})

	// A configuration without a live handle is a defect, not bad input.
	cfg := testConfig()
	ctrl.Session().Config = &cfg

	_, err := ctrl.Turn(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNewControllerWithSessionRebuildsAgent(t *testing.T) {
	transport := &scriptTransport{script: []scriptedCall{
		{resp: &Response{Text: "back again", Usage: callUsage()}},
	}}

	cfg := testConfig()
	loaded := NewSession()
	loaded.Config = &cfg
	loaded.Messages = []Message{UserMessage("hi"), AssistantMessage("hello")}

	ctrl, err := NewControllerWithSession(NewBuilder(transport), NewRegistry(transport), loaded)
	require.NoError(t, err)
	assert.True(t, ctrl.Active())

	text, err := ctrl.Turn(context.Background(), "still there?")
	require.NoError(t, err)
	assert.Equal(t, "back again", text)
}

func TestNewControllerWithSessionBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Model = "gpt-4"
	loaded := NewSession()
	loaded.Config = &cfg

	transport := &scriptTransport{}
	_, err := NewControllerWithSession(NewBuilder(transport), NewRegistry(transport), loaded)

	var merr *UnsupportedModelError
	assert.ErrorAs(t, err, &merr)
}
