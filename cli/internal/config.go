package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the location of the CLI config file
const EnvConfigPath = "SOLARCTL_CONFIG"

const defaultContextName = "default"

// PartnerSettings locate a partner environment. The password is never stored;
// it comes from FORTLEV_PASSWORD or a prompt.
type PartnerSettings struct {
	BaseURL  string `yaml:"base_url,omitempty"`
	Username string `yaml:"username,omitempty"`
}

// RenderSettings control terminal output
type RenderSettings struct {
	Theme string `yaml:"theme,omitempty"`
}

// Context is a named partner environment, in the spirit of kubectl contexts
type Context struct {
	Fortlev   PartnerSettings `yaml:"fortlev"`
	Rendering RenderSettings  `yaml:"rendering"`
}

// Config is the content of ~/.solarctl
type Config struct {
	CurrentContext string              `yaml:"current-context"`
	Contexts       map[string]*Context `yaml:"contexts"`
}

// DefaultConfig has one empty context whose partner values come from the
// FORTLEV_* environment until set with add-context.
func DefaultConfig() *Config {
	return &Config{
		CurrentContext: defaultContextName,
		Contexts: map[string]*Context{
			defaultContextName: {Rendering: RenderSettings{Theme: defaultTheme}},
		},
	}
}

// Names returns the context names in order
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetCurrentContext returns the active context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, errors.New("no current context set")
	}
	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return nil, fmt.Errorf("current context %q not found", c.CurrentContext)
	}
	return ctx, nil
}

// Use makes name the active context
func (c *Config) Use(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	c.CurrentContext = name
	return nil
}

// Put adds or replaces a context. The first context added becomes current.
func (c *Config) Put(name string, ctx *Context) {
	if c.Contexts == nil {
		c.Contexts = make(map[string]*Context)
	}
	c.Contexts[name] = ctx
	if len(c.Contexts) == 1 {
		c.CurrentContext = name
	}
}

// Remove deletes a context other than the active one
func (c *Config) Remove(name string) error {
	if name == c.CurrentContext {
		return fmt.Errorf("cannot delete current context %q", name)
	}
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	delete(c.Contexts, name)
	return nil
}

// ConfigPath is $SOLARCTL_CONFIG or ~/.solarctl
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".solarctl"), nil
}

// LoadConfig reads the config file. A missing file yields DefaultConfig; it is
// written on the first command that changes something.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.CurrentContext == "" {
		if names := cfg.Names(); len(names) > 0 {
			cfg.CurrentContext = names[0]
		}
	}
	return &cfg, nil
}

// Save writes the config through a temp file so a failed write never leaves
// a truncated file behind
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".solarctl-*")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}
