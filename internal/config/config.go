// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/appvisor/appvisor/internal/issue"
	"github.com/appvisor/appvisor/internal/vfs"
	"github.com/appvisor/appvisor/pkg/cueutil"
)

//go:embed schema.cue
var configSchema string

type (
	// Provider loads settings from explicit options.
	Provider interface {
		// Load returns the settings and the file they were read from ("" when
		// only defaults and the environment applied).
		Load(ctx context.Context, opts LoadOptions) (Settings, string, error)
	}

	fileProvider struct {
		fs  *vfs.FS
		env func(string) (string, bool)
	}
)

// NewProvider creates a provider reading files from fsys and overrides from
// env. A nil env disables environment overrides.
func NewProvider(fsys *vfs.FS, env func(string) (string, bool)) Provider {
	return &fileProvider{fs: fsys, env: env}
}

// Load reads settings from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (Settings, string, error) {
	select {
	case <-ctx.Done():
		return Settings{}, "", fmt.Errorf("load settings canceled: %w", ctx.Err())
	default:
	}
	if err := opts.Validate(); err != nil {
		return Settings{}, "", err
	}

	v := viper.New()
	defaults := DefaultSettings()
	v.SetDefault("id", defaults.ID)
	v.SetDefault("framework_path", defaults.FrameworkPath)
	v.SetDefault("modules_env", defaults.ModulesEnv)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("log_timestamps", defaults.LogTimestamps)
	v.SetDefault("cache_size", defaults.CacheSize)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("watch.patterns", defaults.Watch.Patterns)
	v.SetDefault("watch.ignore", defaults.Watch.Ignore)

	resolvedPath := ""
	switch {
	case opts.ConfigFilePath != "":
		if !p.fs.Exists(opts.ConfigFilePath) {
			return Settings{}, "", issue.NewBuilder(issue.KindFatal).
				WithOperation("load settings").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'appvisor config --defaults' to print a starting point").
				Wrap(fmt.Errorf("settings file not found: %s", opts.ConfigFilePath)).
				Err()
		}
		resolvedPath = opts.ConfigFilePath
	case opts.Root != "":
		if candidate := filepath.Join(opts.Root, FileName); p.fs.Exists(candidate) {
			resolvedPath = candidate
		}
	}

	if resolvedPath != "" {
		if err := p.loadCUEIntoViper(v, resolvedPath); err != nil {
			return Settings{}, "", issue.NewBuilder(issue.KindFatal).
				WithOperation("load settings").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the expected schema").
				Wrap(err).
				Err()
		}
	}

	if p.env != nil {
		p.applyEnv(v)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, "", fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, resolvedPath, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func (p *fileProvider) loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := p.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	unified, err := cueutil.CompileAndValidate(configSchema, data, "#Config", path, false)
	if err != nil {
		return err
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge settings: %w", err)
	}
	return nil
}

// applyEnv sets every key that has an APPVISOR_<KEY> variable. Lists are
// split on commas.
func (p *fileProvider) applyEnv(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		name := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		value, ok := p.env(name)
		if !ok {
			continue
		}
		if key == "watch.patterns" || key == "watch.ignore" {
			v.Set(key, strings.Split(value, ","))
			continue
		}
		v.Set(key, value)
	}
}
