package forge

// Model identifies a model the transport can invoke.
type Model string

// Built-in model identifiers. The supported set is configuration-supplied;
// these are the defaults when no settings override them.
const (
	ModelClaudeSonnet Model = "claude-3-5-sonnet-latest"
	ModelClaudeHaiku  Model = "claude-3-5-haiku-latest"
)

const (
	// DefaultModel is used by the Builder when no model is specified.
	DefaultModel = ModelClaudeSonnet

	// DefaultMaxOutputTokens is the default maximum output tokens per response.
	DefaultMaxOutputTokens = 8192

	// DefaultMaxRetries is the default number of re-prompts after a
	// structured output validation failure.
	DefaultMaxRetries = 2

	// DefaultStreamBufferSize is the default channel buffer size for
	// streaming fragments.
	DefaultStreamBufferSize = 64
)

// DefaultSupportedModels is the default closed set of models a
// sub-agent configuration may name.
var DefaultSupportedModels = []Model{ModelClaudeSonnet, ModelClaudeHaiku}
