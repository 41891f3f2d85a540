// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// FileName is the settings file looked up in the application root.
	FileName = "appvisor.cue"

	// EnvPrefix prefixes every environment override (APPVISOR_LOG_FORMAT, ...).
	EnvPrefix = "APPVISOR"
)

// ErrInvalidLoadOptions is the sentinel wrapped by InvalidLoadOptionsError.
var ErrInvalidLoadOptions = errors.New("invalid load options")

type (
	// Settings configures the runtime.
	Settings struct {
		ID            string        `mapstructure:"id"`
		FrameworkPath string        `mapstructure:"framework_path"`
		ModulesEnv    string        `mapstructure:"modules_env"`
		LogFormat     string        `mapstructure:"log_format"`
		LogTimestamps bool          `mapstructure:"log_timestamps"`
		CacheSize     int           `mapstructure:"cache_size"`
		Watch         WatchSettings `mapstructure:"watch"`
	}

	// WatchSettings configures `appvisor run --watch`.
	WatchSettings struct {
		Debounce time.Duration `mapstructure:"debounce"`
		Patterns []string      `mapstructure:"patterns"`
		Ignore   []string      `mapstructure:"ignore"`
	}

	// LoadOptions defines explicit settings loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific file when set.
		ConfigFilePath string
		// Root is the application root searched for FileName.
		Root string
	}

	// InvalidLoadOptionsError lists every rejected LoadOptions field.
	InvalidLoadOptionsError struct {
		FieldErrors []error
	}
)

// DefaultSettings returns the settings used when nothing overrides them.
func DefaultSettings() Settings {
	return Settings{
		ModulesEnv: "MODULES",
		LogFormat:  "text",
		CacheSize:  4096,
		Watch: WatchSettings{
			Debounce: 300 * time.Millisecond,
			Patterns: []string{"app/**", "conf/**", "test/**"},
			Ignore:   []string{"**/*.swp", "**/*~", "**/.#*", "tmp/**"},
		},
	}
}

// Validate rejects whitespace-only paths. Empty fields mean "use the default".
func (o LoadOptions) Validate() error {
	var errs []error
	if o.ConfigFilePath != "" && strings.TrimSpace(o.ConfigFilePath) == "" {
		errs = append(errs, fmt.Errorf("config file path %q is blank", o.ConfigFilePath))
	}
	if o.Root != "" && strings.TrimSpace(o.Root) == "" {
		errs = append(errs, fmt.Errorf("root %q is blank", o.Root))
	}
	if len(errs) > 0 {
		return &InvalidLoadOptionsError{FieldErrors: errs}
	}
	return nil
}

func (e *InvalidLoadOptionsError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid load options: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid load options: %d field errors", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidLoadOptions for errors.Is() compatibility.
func (e *InvalidLoadOptionsError) Unwrap() error {
	return ErrInvalidLoadOptions
}

// GenerateCUE renders s as an appvisor.cue document.
func GenerateCUE(s Settings) string {
	var sb strings.Builder
	sb.WriteString("// appvisor runtime settings\n\n")
	if s.ID != "" {
		fmt.Fprintf(&sb, "id: %q\n", s.ID)
	}
	if s.FrameworkPath != "" {
		fmt.Fprintf(&sb, "framework_path: %q\n", s.FrameworkPath)
	}
	fmt.Fprintf(&sb, "modules_env: %q\n", s.ModulesEnv)
	fmt.Fprintf(&sb, "log_format: %q\n", s.LogFormat)
	fmt.Fprintf(&sb, "log_timestamps: %t\n", s.LogTimestamps)
	fmt.Fprintf(&sb, "cache_size: %d\n", s.CacheSize)
	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce: %q\n", s.Watch.Debounce.String())
	fmt.Fprintf(&sb, "\tpatterns: %s\n", cueList(s.Watch.Patterns))
	fmt.Fprintf(&sb, "\tignore: %s\n", cueList(s.Watch.Ignore))
	sb.WriteString("}\n")
	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
