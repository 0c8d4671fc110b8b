package forge

import "fmt"

// AgentConfig describes a sub-agent to be built. Produced by the
// Builder's structured-output step and consumed exactly once by
// Registry.Build; treated as immutable for the sub-agent's lifetime.
type AgentConfig struct {
	// SystemPrompt defines the agent's role and behavior.
	SystemPrompt string `json:"system_prompt" jsonschema:"required,description=The system prompt that defines the agent's role and behavior"`

	// Model is the model identifier the agent will run on. Must be a
	// member of the configured supported set.
	Model Model `json:"model" jsonschema:"required,description=The model to use for this agent"`

	// Name is a short descriptive name for the agent.
	Name string `json:"name" jsonschema:"required,description=A descriptive name for the agent"`

	// Description summarizes what the agent does.
	Description string `json:"description" jsonschema:"required,description=A brief description of what this agent does"`

	// Avatar is an optional opaque URI for display surfaces.
	Avatar string `json:"avatar,omitempty" jsonschema:"description=Optional avatar URI for the agent"`
}

// Validate checks the configuration for completeness and membership of
// Model in the supported set. A validation failure before Build means
// no state has been touched.
func (c *AgentConfig) Validate(supported []Model) error {
	if c.SystemPrompt == "" {
		return &SchemaValidationError{Format: "agent_config", Reason: "system_prompt must not be empty"}
	}
	if c.Name == "" {
		return &SchemaValidationError{Format: "agent_config", Reason: "name must not be empty"}
	}
	if c.Description == "" {
		return &SchemaValidationError{Format: "agent_config", Reason: "description must not be empty"}
	}
	for _, m := range supported {
		if c.Model == m {
			return nil
		}
	}
	return &UnsupportedModelError{Model: c.Model, Supported: supported}
}

// Summary renders the configuration in the confirmation format shown
// to the user after a successful build.
func (c *AgentConfig) Summary() string {
	return fmt.Sprintf(
		"Created agent configuration:\nName: %s\nDescription: %s\nModel: %s\nSystem Prompt: %s\n\nConfiguration complete!",
		c.Name, c.Description, c.Model, c.SystemPrompt)
}
