package jokes

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	forge "github.com/alt-sl/agentforge"
)

// fakeTransport replays scripted responses and records requests.
type fakeTransport struct {
	responses []*forge.Response
	calls     []forge.Request
}

func (f *fakeTransport) Complete(_ context.Context, req forge.Request) (*forge.Response, error) {
	f.calls = append(f.calls, req)
	if len(f.responses) == 0 {
		return nil, fmt.Errorf("unexpected call %d", len(f.calls))
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func jokesResponse(t *testing.T, jokes ...string) *forge.Response {
	t.Helper()
	raw, err := json.Marshal(jokeList{Jokes: jokes})
	require.NoError(t, err)
	return &forge.Response{
		Structured: raw,
		Usage:      forge.Usage{Requests: 1, InputTokens: 50, OutputTokens: 30},
	}
}

func TestGenerate(t *testing.T) {
	transport := &fakeTransport{responses: []*forge.Response{
		jokesResponse(t, "joke one", "joke two", "joke three"),
	}}
	factory := NewFactory(transport, forge.DefaultModel, forge.UsageLimits{})

	jokes, err := factory.Generate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"joke one", "joke two", "joke three"}, jokes)

	require.Len(t, transport.calls, 1)
	req := transport.calls[0]
	assert.Contains(t, req.Messages[0].Content, "3 jokes")
	require.NotNil(t, req.Output)
	assert.Equal(t, "joke_list", req.Output.Name)
}

func TestBest(t *testing.T) {
	transport := &fakeTransport{responses: []*forge.Response{
		jokesResponse(t, "joke one", "joke two"),
		{Text: "joke two", Usage: forge.Usage{Requests: 1, InputTokens: 40, OutputTokens: 10}},
	}}
	factory := NewFactory(transport, forge.DefaultModel, forge.UsageLimits{})

	best, err := factory.Best(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "joke two", best)

	// The selection call sees the candidates and uses free text.
	require.Len(t, transport.calls, 2)
	selection := transport.calls[1]
	assert.Contains(t, selection.Messages[0].Content, "joke one")
	assert.Nil(t, selection.Output)

	// Both agents billed against the shared tracker.
	usage := factory.Usage()
	assert.Equal(t, int64(2), usage.Requests)
	assert.Equal(t, int64(130), usage.TotalTokens())
	assert.False(t, usage.Cost.IsZero())
}

func TestBestRequestLimit(t *testing.T) {
	transport := &fakeTransport{responses: []*forge.Response{
		jokesResponse(t, "only joke"),
	}}
	factory := NewFactory(transport, forge.DefaultModel, forge.UsageLimits{RequestLimit: 1})

	_, err := factory.Best(context.Background(), 1)
	assert.ErrorIs(t, err, forge.ErrRequestLimit)
	assert.Len(t, transport.calls, 1, "the generation call exhausted the budget")
}

func TestGenerateTokenLimit(t *testing.T) {
	transport := &fakeTransport{responses: []*forge.Response{
		jokesResponse(t, "a joke"),
	}}
	factory := NewFactory(transport, forge.DefaultModel, forge.UsageLimits{TotalTokensLimit: 60})

	_, err := factory.Generate(context.Background(), 1)
	require.NoError(t, err)

	_, err = factory.Generate(context.Background(), 1)
	assert.ErrorIs(t, err, forge.ErrTokenLimit)
}
