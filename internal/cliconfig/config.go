// Package cliconfig loads corpusctl's JSONC configuration file, layering a
// global user config, a project config, and CLI overrides — the same
// precedence shape calvinalkan-agent-task's root config.go uses for the
// ticket CLI, generalized to the corpus document store's settings.
package cliconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/mdcorpus/corpus/pkg/corpus"
)

// ConfigFileName is the default project config file name.
const ConfigFileName = ".corpus.json"

// ErrWorkspaceRootEmpty indicates a config file explicitly set workspace_root
// to the empty string, which is always invalid.
var ErrWorkspaceRootEmpty = errors.New("workspace_root must not be empty")

// Sources records which config files actually contributed to the merged
// result, for diagnostic output.
type Sources struct {
	Global  string
	Project string
}

// Overrides carries CLI-flag-supplied values that win over file config when
// present.
type Overrides struct {
	WorkspaceRoot   string
	HasWorkspaceRoot bool

	MaxCacheEntries    int
	HasMaxCacheEntries bool
}

// Load resolves corpus.Config with precedence (highest wins): defaults <
// global user config < project config < CLI overrides.
func Load(workDir string, overrides Overrides, env []string) (corpus.Config, Sources, error) {
	cfg := corpus.DefaultConfig(workDir)

	var sources Sources

	globalCfg, globalPath, err := loadOptional(globalConfigPath(env))
	if err != nil {
		return corpus.Config{}, Sources{}, err
	}

	sources.Global = globalPath
	cfg = merge(cfg, globalCfg)

	projectPath := filepath.Join(workDir, ConfigFileName)

	projectCfg, loadedProjectPath, err := loadOptional(projectPath)
	if err != nil {
		return corpus.Config{}, Sources{}, err
	}

	sources.Project = loadedProjectPath
	cfg = merge(cfg, projectCfg)

	if overrides.HasWorkspaceRoot {
		cfg.WorkspaceRoot = overrides.WorkspaceRoot
	}

	if overrides.HasMaxCacheEntries {
		cfg.MaxCacheEntries = overrides.MaxCacheEntries
	}

	if cfg.WorkspaceRoot == "" {
		return corpus.Config{}, Sources{}, ErrWorkspaceRootEmpty
	}

	return cfg, sources, nil
}

func globalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := cut(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "corpus", "config.json")
		}
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "corpus", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "corpus", "config.json")
}

func cut(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}

	return "", false
}

// loadOptional reads and JSONC-decodes path, returning a zero config and
// empty path with no error when the file is simply absent.
func loadOptional(path string) (corpus.Config, string, error) {
	if path == "" {
		return corpus.Config{}, "", nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled config location
	if err != nil {
		if os.IsNotExist(err) {
			return corpus.Config{}, "", nil
		}

		return corpus.Config{}, "", fmt.Errorf("reading %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return corpus.Config{}, "", fmt.Errorf("%s: invalid JSONC: %w", path, err)
	}

	var cfg corpus.Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return corpus.Config{}, "", fmt.Errorf("%s: invalid JSON: %w", path, err)
	}

	return cfg, path, nil
}

func merge(base, overlay corpus.Config) corpus.Config {
	if overlay.WorkspaceRoot != "" {
		base.WorkspaceRoot = overlay.WorkspaceRoot
	}

	if overlay.MaxCacheEntries != 0 {
		base.MaxCacheEntries = overlay.MaxCacheEntries
	}

	return base
}

// Format renders cfg as indented JSON.
func Format(cfg corpus.Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}

	return string(data), nil
}
