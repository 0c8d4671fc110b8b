package forge

import "github.com/alt-sl/agentforge/internal/config"

// Option configures a Builder, Registry, or Controller via the
// functional options pattern.
type Option func(*options)

// options holds all configurable fields set via Option functions.
type options struct {
	model            Model
	supported        []Model
	systemPrompt     string
	maxOutputTokens  int
	streamBufferSize int
	limits           UsageLimits
	sink             FragmentSink
	settingSources   []string

	maxRetries   int
	retriesSet   bool
	carryHistory bool
	carrySet     bool
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (o *options) applyDefaults() {
	if o.model == "" {
		o.model = DefaultModel
	}
	if len(o.supported) == 0 {
		o.supported = DefaultSupportedModels
	}
	if o.systemPrompt == "" {
		o.systemPrompt = builderSystemPrompt
	}
	if o.maxOutputTokens == 0 {
		o.maxOutputTokens = DefaultMaxOutputTokens
	}
	if o.streamBufferSize == 0 {
		o.streamBufferSize = DefaultStreamBufferSize
	}
	if !o.retriesSet {
		o.maxRetries = DefaultMaxRetries
	}
	if !o.carrySet {
		o.carryHistory = true
	}
}

// reapply applies explicit option functions on top of already resolved
// options. Used by the Controller constructors so their options also
// reach the injected Builder and Registry instead of being dropped.
func (o *options) reapply(opts []Option) {
	for _, fn := range opts {
		fn(o)
	}
}

// resolveOptions applies all option functions, merges settings files,
// and fills defaults. Explicit options win over file-based settings.
func resolveOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	if len(o.settingSources) > 0 {
		settings, err := config.LoadSettings(o.settingSources...)
		if err == nil {
			applySettings(&o, settings)
		}
	}

	o.applyDefaults()
	return o
}

// applySettings merges loaded settings into options, only where no
// explicit option was set.
func applySettings(o *options, s *config.Settings) {
	if o.model == "" && s.Model != "" {
		o.model = Model(s.Model)
	}
	if len(o.supported) == 0 && len(s.SupportedModels) > 0 {
		for _, m := range s.SupportedModels {
			o.supported = append(o.supported, Model(m))
		}
	}
	if !o.retriesSet && s.MaxRetries != nil {
		o.maxRetries = *s.MaxRetries
		o.retriesSet = true
	}
	if !o.carrySet && s.CarryBuilderHistory != nil {
		o.carryHistory = *s.CarryBuilderHistory
		o.carrySet = true
	}
	if o.limits.RequestLimit == 0 && s.RequestLimit > 0 {
		o.limits.RequestLimit = s.RequestLimit
	}
	if o.limits.TotalTokensLimit == 0 && s.TotalTokensLimit > 0 {
		o.limits.TotalTokensLimit = s.TotalTokensLimit
	}
}

// WithModel sets the model the Builder negotiates with.
func WithModel(model Model) Option {
	return func(o *options) { o.model = model }
}

// WithSupportedModels sets the closed set of models a sub-agent
// configuration may name.
func WithSupportedModels(models ...Model) Option {
	return func(o *options) { o.supported = models }
}

// WithSystemPrompt overrides the Builder's negotiation prompt.
func WithSystemPrompt(prompt string) Option {
	return func(o *options) { o.systemPrompt = prompt }
}

// WithMaxOutputTokens sets the maximum output tokens per response.
func WithMaxOutputTokens(tokens int) Option {
	return func(o *options) { o.maxOutputTokens = tokens }
}

// WithMaxRetries bounds re-prompts after structured output validation
// failures. Zero disables retries entirely.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
		o.retriesSet = true
	}
}

// WithCarryHistory controls whether Active-state turns forward the
// configuring-phase history to the sub-agent. Default true.
func WithCarryHistory(carry bool) Option {
	return func(o *options) {
		o.carryHistory = carry
		o.carrySet = true
	}
}

// WithUsageLimits bounds cumulative requests and tokens per session.
func WithUsageLimits(limits UsageLimits) Option {
	return func(o *options) { o.limits = limits }
}

// WithStreamBufferSize sets the fragment channel buffer size.
func WithStreamBufferSize(n int) Option {
	return func(o *options) { o.streamBufferSize = n }
}

// WithFragmentSink delivers response fragments incrementally to sink
// during Active-state turns, when the transport supports streaming.
func WithFragmentSink(sink FragmentSink) Option {
	return func(o *options) { o.sink = sink }
}

// WithSettingSources loads JSON settings files, later paths overriding
// earlier ones. Explicit options take precedence over file settings.
func WithSettingSources(paths ...string) Option {
	return func(o *options) { o.settingSources = paths }
}

// WithDefaultSettings loads settings from the standard locations:
// ~/.agentforge/settings.json, then projectDir/.agentforge/settings.json.
func WithDefaultSettings(projectDir string) Option {
	return func(o *options) {
		o.settingSources = append(o.settingSources, config.DefaultSettingsPaths(projectDir)...)
	}
}
