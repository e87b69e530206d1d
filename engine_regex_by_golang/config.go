package engine_regex_by_golang

// Unified configuration for the regex prefilter engine.

// -------------------- EngineConfig --------------------

type EngineConfig struct {
	// Atoms shorter than this are not worth filtering on; patterns whose
	// only literals are shorter degrade to always-candidates.
	MinAtomLength int `json:"min_atom_length"`

	// Cap on the cross-product of exact string sets kept during literal
	// analysis before collapsing into And/Or predicates.
	MaxExactStrings int `json:"max_exact_strings"`

	// Master switch: when off, every pattern is a candidate for every input.
	EnablePrefilter bool `json:"enable_prefilter"`

	// Fan-out threshold for the one-time parent-link pruning pass over the
	// propagation tree. 0 disables pruning.
	PruneFanout int `json:"prune_fanout"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinAtomLength:   3,
		MaxExactStrings: 16,
		EnablePrefilter: true,
		PruneFanout:     8,
	}
}

func NewEngineConfig() EngineConfig {
	return DefaultEngineConfig()
}

// DisabledPrefilterConfig keeps literal analysis off entirely; everything is
// verified by the full matcher.
func DisabledPrefilterConfig() EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.EnablePrefilter = false
	return cfg
}

func (c EngineConfig) WithMinAtomLength(n int) EngineConfig {
	c.MinAtomLength = n
	return c
}

func (c EngineConfig) WithMaxExactStrings(n int) EngineConfig {
	c.MaxExactStrings = n
	return c
}

func (c EngineConfig) WithPrefilter(enable bool) EngineConfig {
	c.EnablePrefilter = enable
	return c
}

func (c EngineConfig) WithPruneFanout(n int) EngineConfig {
	c.PruneFanout = n
	return c
}
