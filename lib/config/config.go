// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/parley-dev/parley/lib/sealed"
)

// Gateway selects the model gateway wire format.
type Gateway string

const (
	// GatewayOpenAI speaks the OpenAI chat-completions format, served
	// by OpenRouter and most other routers.
	GatewayOpenAI Gateway = "openai"

	// GatewayAnthropic speaks the Anthropic Messages format.
	GatewayAnthropic Gateway = "anthropic"
)

// Defaults.
const (
	DefaultModel          = "anthropic/claude-3-5-sonnet-20241022"
	DefaultBaseURL        = "https://openrouter.ai/api/v1"
	DefaultAPIKeyEnv      = "OPENROUTER_API_KEY"
	DefaultMaxTokens      = 1000
	DefaultMaxIterations  = 10
	DefaultRequestTimeout = "120s"
)

// DefaultSystemPrompt is the system message of a new conversation.
const DefaultSystemPrompt = `You are an intelligent assistant with access to MCP (Model Context Protocol) tools, resources, and prompts.

Guidelines:
- Use available tools to fetch real-time data when needed
- Leverage resources for reference information and context
- Be concise but thorough in your responses
- When using tools, explain what you're doing and why
- If multiple tools are needed, use them efficiently in sequence
- Always provide helpful, accurate information based on the data you receive`

// Config is the complete parley configuration.
type Config struct {
	// Model is the gateway model identifier.
	Model string `yaml:"model" json:"model"`

	// Gateway is the wire format of the model gateway.
	Gateway Gateway `yaml:"gateway" json:"gateway"`

	// BaseURL is the gateway API root, e.g. https://openrouter.ai/api/v1.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`

	// SealedAPIKey is the API key encrypted with "parley seal". When
	// set it takes precedence over APIKeyEnv.
	SealedAPIKey string `yaml:"sealed_api_key" json:"sealed_api_key"`

	// IdentityFile is the age identity that decrypts SealedAPIKey.
	IdentityFile string `yaml:"identity_file" json:"identity_file"`

	// Attribution is sent to OpenRouter as HTTP-Referer and X-Title.
	Attribution AttributionConfig `yaml:"attribution" json:"attribution"`

	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// Temperature is left to the gateway default when unset.
	Temperature *float64 `yaml:"temperature" json:"temperature"`

	// MaxIterations caps the model calls answering one query.
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`

	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`

	// AutoResources prepends relevant resource text to each query.
	AutoResources bool `yaml:"auto_resources" json:"auto_resources"`

	// Server is the default MCP server when none is named on the
	// command line.
	Server ServerConfig `yaml:"server" json:"server"`

	// TraceFile, when set, receives a CBOR record of every loop event.
	// A .zst or .lz4 suffix compresses it.
	TraceFile string `yaml:"trace_file" json:"trace_file"`

	// RequestTimeout bounds each gateway request, as a Go duration.
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`

	Render RenderConfig `yaml:"render" json:"render"`
}

// AttributionConfig identifies the application to OpenRouter.
type AttributionConfig struct {
	Referer string `yaml:"referer" json:"referer"`
	Title   string `yaml:"title" json:"title"`
}

// ServerConfig describes an MCP server subprocess.
type ServerConfig struct {
	// Command is a server script or executable. Python and JavaScript
	// sources run under python and node.
	Command string            `yaml:"command" json:"command"`
	Args    []string          `yaml:"args" json:"args"`
	Env     map[string]string `yaml:"env" json:"env"`
	Dir     string            `yaml:"dir" json:"dir"`
}

// RenderConfig controls terminal output of answers.
type RenderConfig struct {
	// Markdown renders answers as styled Markdown on terminals.
	Markdown bool `yaml:"markdown" json:"markdown"`

	// Width wraps rendered output. Zero means the terminal width.
	Width int `yaml:"width" json:"width"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Model:          DefaultModel,
		Gateway:        GatewayOpenAI,
		BaseURL:        DefaultBaseURL,
		APIKeyEnv:      DefaultAPIKeyEnv,
		MaxTokens:      DefaultMaxTokens,
		MaxIterations:  DefaultMaxIterations,
		SystemPrompt:   DefaultSystemPrompt,
		RequestTimeout: DefaultRequestTimeout,
		Render:         RenderConfig{Markdown: true},
	}
}

// Load loads the file at path, or the file named by PARLEY_CONFIG
// when path is empty, or only the defaults when both are empty.
// Environment overrides and variable expansion are applied in every
// case.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("PARLEY_CONFIG")
	}
	if path == "" {
		cfg := Default()
		cfg.applyEnvironment()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnvironment()
	cfg.expandVariables()
	return cfg, nil
}

// loadFile merges the file at path into c. Fields absent from the
// file keep their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvironment applies the PARLEY_* overrides.
func (c *Config) applyEnvironment() {
	if model := os.Getenv("PARLEY_MODEL"); model != "" {
		c.Model = model
	}
	if baseURL := os.Getenv("PARLEY_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}
	if gateway := os.Getenv("PARLEY_GATEWAY"); gateway != "" {
		c.Gateway = Gateway(strings.ToLower(gateway))
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{"HOME": os.Getenv("HOME")}
	c.IdentityFile = expandVars(c.IdentityFile, vars)
	c.TraceFile = expandVars(c.TraceFile, vars)
	c.Server.Command = expandVars(c.Server.Command, vars)
	c.Server.Dir = expandVars(c.Server.Dir, vars)
	for i, arg := range c.Server.Args {
		c.Server.Args[i] = expandVars(arg, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, consulting
// vars before the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and reports every problem.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if c.Gateway != GatewayOpenAI && c.Gateway != GatewayAnthropic {
		errs = append(errs, fmt.Errorf("gateway must be %q or %q, got %q", GatewayOpenAI, GatewayAnthropic, c.Gateway))
	}
	if parsed, err := url.Parse(c.BaseURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL))
	}
	if c.SealedAPIKey == "" && c.APIKeyEnv == "" {
		errs = append(errs, errors.New("api_key_env is required when sealed_api_key is not set"))
	}
	if c.SealedAPIKey != "" && c.IdentityFile == "" {
		errs = append(errs, errors.New("identity_file is required with sealed_api_key"))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	if c.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations))
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		errs = append(errs, fmt.Errorf("temperature must be between 0 and 2, got %g", *c.Temperature))
	}
	if timeout, err := time.ParseDuration(c.RequestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("request_timeout: %w", err))
	} else if timeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.Render.Width < 0 {
		errs = append(errs, fmt.Errorf("render.width must not be negative, got %d", c.Render.Width))
	}

	return errors.Join(errs...)
}

// Timeout returns RequestTimeout as a duration. It returns zero for a
// value that does not parse; Validate reports those.
func (c *Config) Timeout() time.Duration {
	timeout, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0
	}
	return timeout
}

// APIKey returns the gateway API key: the decrypted SealedAPIKey if
// set, otherwise the value of the APIKeyEnv variable.
func (c *Config) APIKey() (string, error) {
	if c.SealedAPIKey != "" {
		plaintext, err := sealed.DecryptWithIdentityFile(c.SealedAPIKey, c.IdentityFile)
		if err != nil {
			return "", fmt.Errorf("unsealing API key: %w", err)
		}
		key := strings.TrimSpace(string(plaintext))
		if key == "" {
			return "", errors.New("sealed API key is empty")
		}
		return key, nil
	}

	key := strings.TrimSpace(os.Getenv(c.APIKeyEnv))
	if key == "" {
		return "", fmt.Errorf("API key not found: set %s or configure sealed_api_key", c.APIKeyEnv)
	}
	return key, nil
}
