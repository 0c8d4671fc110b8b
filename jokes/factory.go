// Package jokes is a two-agent pipeline: a generation agent produces
// candidate jokes via structured output, and a selection agent picks
// the best one. Both agents share a single usage tracker, so request
// and token limits bound the pipeline as a whole.
package jokes

import (
	"context"
	"fmt"

	forge "github.com/alt-sl/agentforge"
	"github.com/alt-sl/agentforge/internal/budget"
)

const selectionPrompt = "Generate some candidate jokes, then choose the best. " +
	"You must return just a single joke."

const generationPrompt = "You are a joke writer. Generate the requested number of jokes."

// jokeList is the generation agent's structured output.
type jokeList struct {
	Jokes []string `json:"jokes" jsonschema:"required,description=The generated jokes"`
}

// Factory runs the joke pipeline over a shared transport.
type Factory struct {
	transport forge.Transport
	model     forge.Model
	tracker   *budget.Tracker
	format    forge.OutputFormat
}

// NewFactory creates a Factory. Zero limits mean unlimited.
func NewFactory(transport forge.Transport, model forge.Model, limits forge.UsageLimits) *Factory {
	return &Factory{
		transport: transport,
		model:     model,
		tracker:   budget.NewTracker(limits.RequestLimit, limits.TotalTokensLimit, budget.DefaultPricing),
		format:    forge.NewOutputFormatType[jokeList]("joke_list"),
	}
}

// Generate asks the generation agent for count candidate jokes.
func (f *Factory) Generate(ctx context.Context, count int) ([]string, error) {
	resp, err := f.invoke(ctx, generationPrompt,
		fmt.Sprintf("Please generate %d jokes.", count), &f.format)
	if err != nil {
		return nil, err
	}

	list, err := forge.DecodeOutput[jokeList](f.format, resp.Structured)
	if err != nil {
		return nil, err
	}
	return list.Jokes, nil
}

// Best generates count candidates and asks the selection agent to pick
// one. The selection call shares the generation calls' usage budget.
func (f *Factory) Best(ctx context.Context, count int) (string, error) {
	jokes, err := f.Generate(ctx, count)
	if err != nil {
		return "", err
	}

	query := "Choose the best of these jokes and return it verbatim:\n"
	for _, joke := range jokes {
		query += "- " + joke + "\n"
	}

	resp, err := f.invoke(ctx, selectionPrompt, query, nil)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Usage returns the cumulative usage across both agents.
func (f *Factory) Usage() forge.Usage {
	total := f.tracker.Total()
	return forge.Usage{
		Requests:     total.Requests,
		InputTokens:  total.InputTokens,
		OutputTokens: total.OutputTokens,
		Cost:         f.tracker.TotalCost(),
	}
}

// invoke performs one limit-checked call.
func (f *Factory) invoke(ctx context.Context, system, query string, format *forge.OutputFormat) (*forge.Response, error) {
	switch f.tracker.Exceeded() {
	case budget.LimitRequests:
		return nil, forge.ErrRequestLimit
	case budget.LimitTokens:
		return nil, forge.ErrTokenLimit
	}

	resp, err := f.transport.Complete(ctx, forge.Request{
		Model:    f.model,
		System:   system,
		Messages: []forge.Message{forge.UserMessage(query)},
		Output:   format,
	})
	if err != nil {
		return nil, err
	}

	f.tracker.Record(string(f.model), budget.Usage{
		Requests:     resp.Usage.Requests,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	})
	return resp, nil
}
