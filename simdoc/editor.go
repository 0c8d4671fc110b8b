package simdoc

import (
	"context"
	"errors"
	"fmt"

	forge "github.com/alt-sl/agentforge"
	"github.com/alt-sl/agentforge/internal/budget"
)

// ErrUnsupportedSection is returned for edit requests targeting a
// section the editor cannot handle yet.
var ErrUnsupportedSection = errors.New("simdoc: only the thoughts section can be edited currently")

// Section names an editable region of an element's prompt.
type Section string

const (
	SectionThoughts   Section = "thoughts"
	SectionMemories   Section = "memories"
	SectionGuidelines Section = "communication_guidelines"
)

// EditRequest is the routing agent's classification of a user request:
// which section needs modification and how.
type EditRequest struct {
	Section          Section `json:"section" jsonschema:"required,enum=thoughts,enum=memories,enum=communication_guidelines,description=The prompt section the request applies to"`
	EditInstructions string  `json:"edit_instructions" jsonschema:"required,description=Instructions for the section editor"`
}

// ThoughtsEdit is the thoughts editor agent's rewritten section.
type ThoughtsEdit struct {
	Thoughts []string `json:"thoughts" jsonschema:"required,description=Each thought as a clear complete statement"`
}

const routerPrompt = "You are an expert simulation editor agent. Your job is to analyze " +
	"edit requests and determine which section needs modification. Currently, you can " +
	"only handle thoughts section edits. When a request comes in, determine if it " +
	"relates to thoughts and create an appropriate edit request."

const thoughtsPrompt = "You are an expert thoughts editor. Your job is to edit the thoughts " +
	"section of simulation files while maintaining context and personality. Format each " +
	"thought as a clear, complete statement."

// Editor routes edit requests to specialized section-editor agents and
// applies the results to a Document. All agents share one usage
// tracker so request and token limits bound the whole pipeline.
type Editor struct {
	transport forge.Transport
	model     forge.Model
	tracker   *budget.Tracker

	routeFormat    forge.OutputFormat
	thoughtsFormat forge.OutputFormat
}

// NewEditor creates an Editor. Zero limits mean unlimited.
func NewEditor(transport forge.Transport, model forge.Model, limits forge.UsageLimits) *Editor {
	return &Editor{
		transport:      transport,
		model:          model,
		tracker:        budget.NewTracker(limits.RequestLimit, limits.TotalTokensLimit, budget.DefaultPricing),
		routeFormat:    forge.NewOutputFormatType[EditRequest]("edit_request"),
		thoughtsFormat: forge.NewOutputFormatType[ThoughtsEdit]("thoughts_edit"),
	}
}

// Route classifies a free-form edit request into an EditRequest.
func (e *Editor) Route(ctx context.Context, request string) (*EditRequest, error) {
	raw, err := e.invoke(ctx, routerPrompt, request, &e.routeFormat)
	if err != nil {
		return nil, err
	}
	return forge.DecodeOutput[EditRequest](e.routeFormat, raw.Structured)
}

// EditThoughts runs the thoughts editor agent against the request and
// writes the rewritten section into the document. Returns a
// confirmation message describing the update.
func (e *Editor) EditThoughts(ctx context.Context, doc *Document, element int, req EditRequest) (string, error) {
	if req.Section != SectionThoughts {
		return "", fmt.Errorf("%w: got %q", ErrUnsupportedSection, req.Section)
	}

	raw, err := e.invoke(ctx, thoughtsPrompt, req.EditInstructions, &e.thoughtsFormat)
	if err != nil {
		return "", err
	}
	edit, err := forge.DecodeOutput[ThoughtsEdit](e.thoughtsFormat, raw.Structured)
	if err != nil {
		return "", err
	}

	if err := doc.SetThoughts(element, edit.Thoughts); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully updated thoughts section with %d thoughts.", len(edit.Thoughts)), nil
}

// Apply routes a free-form request and applies it to the document in
// one step.
func (e *Editor) Apply(ctx context.Context, doc *Document, element int, request string) (string, error) {
	req, err := e.Route(ctx, request)
	if err != nil {
		return "", err
	}
	return e.EditThoughts(ctx, doc, element, *req)
}

// Usage returns the cumulative usage across all editor agents.
func (e *Editor) Usage() forge.Usage {
	total := e.tracker.Total()
	return forge.Usage{
		Requests:     total.Requests,
		InputTokens:  total.InputTokens,
		OutputTokens: total.OutputTokens,
		Cost:         e.tracker.TotalCost(),
	}
}

// invoke performs one limit-checked structured call.
func (e *Editor) invoke(ctx context.Context, system, query string, format *forge.OutputFormat) (*forge.Response, error) {
	if err := limitError(e.tracker.Exceeded()); err != nil {
		return nil, err
	}

	resp, err := e.transport.Complete(ctx, forge.Request{
		Model:    e.model,
		System:   system,
		Messages: []forge.Message{forge.UserMessage(query)},
		Output:   format,
	})
	if err != nil {
		return nil, err
	}

	e.tracker.Record(string(e.model), budget.Usage{
		Requests:     resp.Usage.Requests,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	})
	return resp, nil
}

func limitError(limit budget.Limit) error {
	switch limit {
	case budget.LimitRequests:
		return forge.ErrRequestLimit
	case budget.LimitTokens:
		return forge.ErrTokenLimit
	default:
		return nil
	}
}
