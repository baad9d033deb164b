// Package agent resolves which LLM provider serves each agent role
// (extraction, narrative) from a YAML config, with a global active
// provider and per-agent overrides.
package agent

import (
	"agentic_ipo/pkg/core/llm"
)

// Agent roles known to the system. Config keys match these.
const (
	RoleExtractor = "extractor"
	RoleNarrator  = "narrator"
)

type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // optional override
	Model       string `yaml:"model"`    // optional model override
	Description string `yaml:"description"`
}

type Manager struct {
	config    Config
	providers map[string]llm.Provider
}

func NewManager(config Config) *Manager {
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"gemini":   &llm.GeminiProvider{},
			"deepseek": &llm.DeepSeekProvider{},
			"qwen":     &llm.QwenProvider{},
		},
	}
}

// GetProvider resolves the provider for an agent role: per-agent
// override first, then the global active provider, then gemini.
func (m *Manager) GetProvider(agentType string) llm.Provider {
	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p
		}
	}
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}
	return m.providers["gemini"]
}

// Options builds the generation options for an agent role. A model
// configured for the role rides along so the provider uses it instead
// of its hardcoded default; GetProvider alone does not carry the
// model, so callers must pass this wherever the provider is invoked.
func (m *Manager) Options(agentType string) map[string]interface{} {
	options := map[string]interface{}{}
	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Model != "" {
		options["model"] = agentConfig.Model
	}
	return options
}
