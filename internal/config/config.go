// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/agent-architect/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Provider names accepted in the provider setting.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Config represents the complete architect configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Provider selects the analysis backend: gemini, openrouter or ollama.
	Provider string `toml:"provider" json:"provider"`

	Gemini   GeminiConfig   `toml:"gemini" json:"gemini"`
	Cloud    CloudConfig    `toml:"cloud" json:"cloud"`
	Local    LocalConfig    `toml:"local" json:"local"`
	Analysis AnalysisConfig `toml:"analysis" json:"analysis"`
	Diagram  DiagramConfig  `toml:"diagram" json:"diagram"`
	UI       UIConfig       `toml:"ui" json:"ui"`
	Log      LogConfig      `toml:"log" json:"log"`
}

// GeminiConfig configures the hosted Gemini backend.
type GeminiConfig struct {
	APIKey         string  `toml:"api_key" json:"api_key"`
	Model          string  `toml:"model" json:"model"`
	Temperature    float64 `toml:"temperature" json:"temperature"`
	ThinkingBudget int     `toml:"thinking_budget" json:"thinking_budget"`
}

// CloudConfig configures the OpenRouter backend.
type CloudConfig struct {
	APIKey  string `toml:"api_key" json:"api_key"`
	Model   string `toml:"model" json:"model"`
	BaseURL string `toml:"base_url" json:"base_url"`
}

// LocalConfig configures the Ollama backend.
type LocalConfig struct {
	OllamaURL   string `toml:"ollama_url" json:"ollama_url"`
	OllamaModel string `toml:"ollama_model" json:"ollama_model"`
}

// AnalysisConfig tunes the submission flow.
type AnalysisConfig struct {
	// RequestsPerMinute caps outgoing analysis calls; 0 disables the limit.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
	// TitleLength is the rune length of a session title taken from the prompt.
	TitleLength int `toml:"title_length" json:"title_length"`
}

// DiagramConfig selects the diagram engine.
type DiagramConfig struct {
	// Engine is "builtin" or "mmdc".
	Engine   string `toml:"engine" json:"engine"`
	MmdcPath string `toml:"mmdc_path" json:"mmdc_path"`
	// Timeout bounds one mmdc run, as a Go duration string.
	Timeout string `toml:"timeout" json:"timeout"`
	OutDir  string `toml:"out_dir" json:"out_dir"`
}

// TimeoutDuration parses Timeout, falling back to 30s.
func (d DiagramConfig) TimeoutDuration() time.Duration {
	if dur, err := time.ParseDuration(d.Timeout); err == nil && dur > 0 {
		return dur
	}
	return 30 * time.Second
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme        string `toml:"theme" json:"theme"`
	SidebarWidth int    `toml:"sidebar_width" json:"sidebar_width"`
}

// LogConfig configures the file logger.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	// File is the log path; empty means ~/.architect/architect.log.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version:  "1",
		Provider: ProviderGemini,
		Gemini: GeminiConfig{
			Model:          "gemini-3-pro-preview",
			Temperature:    0.2,
			ThinkingBudget: 2048,
		},
		Cloud: CloudConfig{
			Model:   "google/gemini-2.5-pro",
			BaseURL: "https://openrouter.ai/api/v1",
		},
		Local: LocalConfig{
			OllamaURL:   "http://127.0.0.1:11434",
			OllamaModel: "qwen2.5vl:7b",
		},
		Analysis: AnalysisConfig{
			RequestsPerMinute: 10,
			TitleLength:       30,
		},
		Diagram: DiagramConfig{
			Engine:  "builtin",
			Timeout: "30s",
		},
		UI: UIConfig{
			Theme:        "auto",
			SidebarWidth: 28,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the architect configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".architect"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultLogPath returns ~/.architect/architect.log.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "architect.log"), nil
}

// ActivePath returns the file Load would read: the TOML file if present,
// else the JSON file if present, else the TOML path.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// ensureSecurePermissions tightens a config file to 0600 since it may hold
// API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.architect/config.toml, falling back to config.json, then to
// defaults. Environment overrides are applied last. A file that fails to
// decode is reported alongside the defaults.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg, err := LoadFromPath(tomlPath)
			if err == nil {
				return cfg, nil
			}
			loadErr = err
		}
	}

	if loadErr == nil {
		if jsonPath, err := ConfigPathJSON(); err == nil {
			if _, statErr := os.Stat(jsonPath); statErr == nil {
				cfg, err := LoadFromPath(jsonPath)
				if err == nil {
					return cfg, nil
				}
				loadErr = err
			}
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads a specific file over the defaults, choosing the format
// by extension, then applies env overrides and validates.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// EncodeTOML renders cfg as commented TOML.
func EncodeTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# architect configuration file\n")
	buf.WriteString("# API keys may also come from GEMINI_API_KEY and OPENROUTER_API_KEY\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := EncodeTOML(cfg)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg to path as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns ValidationErrors or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field string, value any, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
	}

	switch strings.ToLower(c.Provider) {
	case ProviderGemini, ProviderOpenRouter, ProviderOllama:
	default:
		add("provider", c.Provider, "invalid provider '%s', must be one of: gemini, openrouter, ollama", c.Provider)
	}

	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		add("gemini.temperature", c.Gemini.Temperature, "must be between 0 and 2")
	}
	if c.Gemini.ThinkingBudget < 0 {
		add("gemini.thinking_budget", c.Gemini.ThinkingBudget, "cannot be negative")
	}

	for field, raw := range map[string]string{
		"cloud.base_url":   c.Cloud.BaseURL,
		"local.ollama_url": c.Local.OllamaURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(field, raw, "invalid URL '%s', must be http(s)://host", raw)
		}
	}

	if c.Analysis.RequestsPerMinute < 0 {
		add("analysis.requests_per_minute", c.Analysis.RequestsPerMinute, "cannot be negative")
	}
	if c.Analysis.TitleLength < 1 || c.Analysis.TitleLength > 200 {
		add("analysis.title_length", c.Analysis.TitleLength, "must be between 1 and 200")
	}

	switch strings.ToLower(c.Diagram.Engine) {
	case "builtin", "mmdc":
	default:
		add("diagram.engine", c.Diagram.Engine, "invalid engine '%s', must be one of: builtin, mmdc", c.Diagram.Engine)
	}
	if c.Diagram.Timeout != "" {
		if d, err := time.ParseDuration(c.Diagram.Timeout); err != nil || d <= 0 {
			add("diagram.timeout", c.Diagram.Timeout, "must be a positive duration such as 30s")
		}
	}

	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		add("ui.theme", c.UI.Theme, "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}
	if c.UI.SidebarWidth < 16 || c.UI.SidebarWidth > 60 {
		add("ui.sidebar_width", c.UI.SidebarWidth, "must be between 16 and 60")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level", c.Log.Level, "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}

	if len(errs) == 0 {
		return nil
	}
	sortErrors(errs)
	return errs
}

// sortErrors orders errors by field so map iteration does not leak into
// output.
func sortErrors(errs ValidationErrors) {
	for i := 1; i < len(errs); i++ {
		for j := i; j > 0 && errs[j].Field < errs[j-1].Field; j-- {
			errs[j], errs[j-1] = errs[j-1], errs[j]
		}
	}
}

// SetDefaults fills zero-valued fields from Default.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Provider == "" {
		c.Provider = d.Provider
	}
	c.Provider = strings.ToLower(c.Provider)

	if c.Gemini.Model == "" {
		c.Gemini.Model = d.Gemini.Model
	}
	if c.Gemini.ThinkingBudget == 0 {
		c.Gemini.ThinkingBudget = d.Gemini.ThinkingBudget
	}
	if c.Cloud.Model == "" {
		c.Cloud.Model = d.Cloud.Model
	}
	if c.Cloud.BaseURL == "" {
		c.Cloud.BaseURL = d.Cloud.BaseURL
	}
	if c.Local.OllamaURL == "" {
		c.Local.OllamaURL = d.Local.OllamaURL
	}
	if c.Local.OllamaModel == "" {
		c.Local.OllamaModel = d.Local.OllamaModel
	}
	if c.Analysis.TitleLength == 0 {
		c.Analysis.TitleLength = d.Analysis.TitleLength
	}
	if c.Diagram.Engine == "" {
		c.Diagram.Engine = d.Diagram.Engine
	}
	if c.Diagram.Timeout == "" {
		c.Diagram.Timeout = d.Diagram.Timeout
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = d.UI.SidebarWidth
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - GEMINI_API_KEY, or API_KEY: gemini.api_key
//   - OPENROUTER_API_KEY: cloud.api_key
//   - ARCHITECT_PROVIDER: provider
//   - ARCHITECT_MODEL: the model of the selected provider
//   - ARCHITECT_OLLAMA_URL: local.ollama_url
//   - ARCHITECT_LOG_LEVEL: log.level
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	} else if key := os.Getenv("API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}

	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		c.Cloud.APIKey = key
	}

	if provider := os.Getenv("ARCHITECT_PROVIDER"); provider != "" {
		c.Provider = strings.ToLower(provider)
	}

	if model := os.Getenv("ARCHITECT_MODEL"); model != "" {
		c.SetModel(model)
	}

	if u := os.Getenv("ARCHITECT_OLLAMA_URL"); u != "" {
		c.Local.OllamaURL = u
	}

	if level := os.Getenv("ARCHITECT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// Model returns the model name of the selected provider.
func (c *Config) Model() string {
	switch c.Provider {
	case ProviderOpenRouter:
		return c.Cloud.Model
	case ProviderOllama:
		return c.Local.OllamaModel
	default:
		return c.Gemini.Model
	}
}

// SetModel sets the model name of the selected provider.
func (c *Config) SetModel(model string) {
	switch c.Provider {
	case ProviderOpenRouter:
		c.Cloud.Model = model
	case ProviderOllama:
		c.Local.OllamaModel = model
	default:
		c.Gemini.Model = model
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value using dot notation, e.g. "analysis.title_length".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value using dot notation. String values are converted to
// the field type.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()

	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts snake_case or kebab-case to a Go field name.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

func setFieldValue(field reflect.Value, value any) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %w", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %w", err)
			}
			field.SetFloat(f)
			return nil
		case reflect.Bool:
			field.SetBool(s == "1" || strings.EqualFold(s, "true") || strings.EqualFold(s, "yes"))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("cannot assign nil")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Redacted returns a copy with API keys masked.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.Gemini.APIKey != "" {
		safe.Gemini.APIKey = "[REDACTED]"
	}
	if safe.Cloud.APIKey != "" {
		safe.Cloud.APIKey = "[REDACTED]"
	}
	return safe
}

// String returns the redacted config as JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration, loading it on first access.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
