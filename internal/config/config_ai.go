package config

import "fmt"

// AI operation names. They key the per-operation config sections, the
// circuit breakers and the metrics labels.
const (
	OpEvaluate  = "evaluate"
	OpExtract   = "extract"
	OpSummarize = "summarize"
	OpDescribe  = "describe"
	OpEmbed     = "embed"
)

// Operations lists every AI operation in a stable order.
var Operations = []string{OpEvaluate, OpExtract, OpSummarize, OpDescribe, OpEmbed}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// operation returns a pointer to the raw section for op.
func (c *Config) operation(op string) (*OperationAIConfig, error) {
	switch op {
	case OpEvaluate:
		return &c.AI.Evaluate, nil
	case OpExtract:
		return &c.AI.Extract, nil
	case OpSummarize:
		return &c.AI.Summarize, nil
	case OpDescribe:
		return &c.AI.Describe, nil
	case OpEmbed:
		return &c.AI.Embed, nil
	default:
		return nil, fmt.Errorf("unknown AI operation: %s", op)
	}
}

// GetOperationConfig returns the AI configuration for op with global
// fallbacks applied. The returned value is a copy.
func (c *Config) GetOperationConfig(op string) (OperationAIConfig, error) {
	section, err := c.operation(op)
	if err != nil {
		return OperationAIConfig{}, err
	}
	cfg := *section
	c.applyOperationDefaults(&cfg)
	return cfg, nil
}

// MustOperationConfig is GetOperationConfig for the fixed operation names.
func (c *Config) MustOperationConfig(op string) OperationAIConfig {
	cfg, err := c.GetOperationConfig(op)
	if err != nil {
		panic(err)
	}
	return cfg
}
