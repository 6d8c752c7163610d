// Package config provides configuration structures and loading logic for the
// chainline host: which transformations exist, which ordered pipelines are
// exposed, and how the process itself is wired (server, telemetry, logging).
package config

import (
	"fmt"
	"os"

	"github.com/chainline/chainline/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Config holds the global configuration for the chainline host.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Steps declares parameterized transformations registered on top of the
	// builtin catalog before the registry is frozen.
	Steps []StepSpec `yaml:"steps"`

	// Pipelines declares the named order lists composed at load time.
	Pipelines []PipelineSpec `yaml:"pipelines"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	ListenAddress string `yaml:"listen_address"`
}

// TelemetryConfig holds configuration for OpenTelemetry.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// StepSpec declares one parameterized transformation. Kind selects the
// constructor; the remaining fields are its arguments.
type StepSpec struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"` // remove_word, prefix, suffix, replace, truncate

	Word   string `yaml:"word,omitempty"`   // remove_word
	Value  string `yaml:"value,omitempty"`  // prefix, suffix
	Old    string `yaml:"old,omitempty"`    // replace
	New    string `yaml:"new,omitempty"`    // replace
	Length int    `yaml:"length,omitempty"` // truncate
}

// PipelineSpec declares one named pipeline: an ordered identifier list plus
// the unresolved-identifier policy the composition runs under. Duplicate
// identifiers in Steps are legal and mean "apply it twice". An empty Steps
// list is legal and composes to the identity pipeline.
type PipelineSpec struct {
	Name   string   `yaml:"name"`
	Policy string   `yaml:"policy"` // fail_fast (default) or skip_unresolved
	Steps  []string `yaml:"steps"`
}

// Load reads configuration from a file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		// Defaults
		Server: ServerConfig{
			ListenAddress: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	if path != "" {
		//nolint:gosec // Config file path is controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("CHAINLINE_LISTEN_ADDR"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("CHAINLINE_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("CHAINLINE_OTLP_INSECURE"); val == "true" {
		cfg.Telemetry.Insecure = true
	}
	if val := os.Getenv("CHAINLINE_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("CHAINLINE_LOG_PRETTY"); val == "true" {
		cfg.Logging.Pretty = true
	}
}

// Validate performs validation of the entire configuration.
func (c *Config) Validate() error {
	if c.Server.ListenAddress == "" {
		return fmt.Errorf("server configuration: listen_address is required")
	}

	seenSteps := make(map[string]bool)
	for i, step := range c.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if seenSteps[step.ID] {
			return fmt.Errorf("steps[%d]: duplicate step id %q", i, step.ID)
		}
		seenSteps[step.ID] = true
	}

	seenPipelines := make(map[string]bool)
	for i, p := range c.Pipelines {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pipelines[%d]: %w", i, err)
		}
		if seenPipelines[p.Name] {
			return fmt.Errorf("pipelines[%d]: duplicate pipeline name %q", i, p.Name)
		}
		seenPipelines[p.Name] = true
	}

	return nil
}

// Validate checks a single step declaration.
func (s *StepSpec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: step id is required", domain.ErrConfigInvalid)
	}
	switch s.Kind {
	case "remove_word":
		if s.Word == "" {
			return fmt.Errorf("%w: step %q: remove_word requires word", domain.ErrConfigInvalid, s.ID)
		}
	case "prefix", "suffix":
		if s.Value == "" {
			return fmt.Errorf("%w: step %q: %s requires value", domain.ErrConfigInvalid, s.ID, s.Kind)
		}
	case "replace":
		if s.Old == "" {
			return fmt.Errorf("%w: step %q: replace requires old", domain.ErrConfigInvalid, s.ID)
		}
	case "truncate":
		if s.Length < 0 {
			return fmt.Errorf("%w: step %q: truncate length must be >= 0", domain.ErrConfigInvalid, s.ID)
		}
	case "":
		return fmt.Errorf("%w: step %q: kind is required", domain.ErrConfigInvalid, s.ID)
	default:
		return fmt.Errorf("%w: step %q: unknown kind %q", domain.ErrConfigInvalid, s.ID, s.Kind)
	}
	return nil
}

// Validate checks a single pipeline declaration.
func (p *PipelineSpec) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: pipeline name is required", domain.ErrConfigInvalid)
	}
	if p.Policy != "" {
		if _, err := domain.ParsePolicy(p.Policy); err != nil {
			return fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
	}
	for i, id := range p.Steps {
		if id == "" {
			return fmt.Errorf("%w: pipeline %q: steps[%d] is empty", domain.ErrConfigInvalid, p.Name, i)
		}
	}
	return nil
}

// UnresolvedPolicy returns the parsed policy, defaulting to FailFast when the
// field is unset. The default errs on the loud side: silent skipping must be
// opted into explicitly.
func (p *PipelineSpec) UnresolvedPolicy() domain.UnresolvedPolicy {
	if p.Policy == "" {
		return domain.FailFast
	}
	policy, err := domain.ParsePolicy(p.Policy)
	if err != nil {
		return domain.FailFast
	}
	return policy
}
