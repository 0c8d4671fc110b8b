// Package forge implements a conversational agent hand-off protocol:
// a builder agent interviews the user, synthesizes a configuration for
// a new sub-agent via structured output, instantiates that sub-agent,
// and routes subsequent turns to it.
//
// The core types are:
//
//   - Builder: drives the structured-output negotiation that produces
//     either an AgentConfig or a conversational reply.
//   - Registry: validates configurations and holds the single live
//     sub-agent instance.
//   - Controller: the per-session state machine that decides whether a
//     turn goes to the Builder or the built sub-agent, and commits
//     history and usage atomically.
//   - TextStream: incremental fragment delivery with the
//     Next/Current/Err iteration contract.
//
// Model invocation is abstracted behind Transport; AnthropicTransport
// is the production implementation over the Anthropic Messages API.
package forge
