package cliconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdcorpus/corpus/internal/cliconfig"
)

func TestLoad_UsesDefaultsWhenNoConfigFilesExist(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	xdg := t.TempDir()

	cfg, sources, err := cliconfig.Load(workDir, cliconfig.Overrides{}, []string{"XDG_CONFIG_HOME=" + xdg})
	require.NoError(t, err)

	assert.Equal(t, workDir, cfg.WorkspaceRoot)
	assert.Equal(t, 256, cfg.MaxCacheEntries)
	assert.Empty(t, sources.Global)
	assert.Empty(t, sources.Project)
}

func TestLoad_ProjectConfigOverridesGlobal(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	xdg := t.TempDir()

	globalDir := filepath.Join(xdg, "corpus")
	require.NoError(t, os.MkdirAll(globalDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(`{"max_cache_entries": 10}`), 0o644))

	projectPath := filepath.Join(workDir, cliconfig.ConfigFileName)
	require.NoError(t, os.WriteFile(projectPath, []byte(`{"max_cache_entries": 99}`), 0o644))

	cfg, sources, err := cliconfig.Load(workDir, cliconfig.Overrides{}, []string{"XDG_CONFIG_HOME=" + xdg})
	require.NoError(t, err)

	assert.Equal(t, 99, cfg.MaxCacheEntries)
	assert.NotEmpty(t, sources.Global)
	assert.Equal(t, projectPath, sources.Project)
}

func TestLoad_OverridesWinOverFileConfig(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	xdg := t.TempDir()

	projectPath := filepath.Join(workDir, cliconfig.ConfigFileName)
	require.NoError(t, os.WriteFile(projectPath, []byte(`{"max_cache_entries": 99}`), 0o644))

	overrides := cliconfig.Overrides{MaxCacheEntries: 5, HasMaxCacheEntries: true}

	cfg, _, err := cliconfig.Load(workDir, overrides, []string{"XDG_CONFIG_HOME=" + xdg})
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxCacheEntries)
}

func TestLoad_AcceptsJSONCCommentsAndTrailingCommas(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	xdg := t.TempDir()

	projectPath := filepath.Join(workDir, cliconfig.ConfigFileName)
	jsonc := "{\n  // how many documents to keep resident\n  \"max_cache_entries\": 42,\n}\n"
	require.NoError(t, os.WriteFile(projectPath, []byte(jsonc), 0o644))

	cfg, _, err := cliconfig.Load(workDir, cliconfig.Overrides{}, []string{"XDG_CONFIG_HOME=" + xdg})
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.MaxCacheEntries)
}

func TestLoad_RejectsEmptyWorkspaceRootWithNoOtherSource(t *testing.T) {
	t.Parallel()

	xdg := t.TempDir()

	_, _, err := cliconfig.Load("", cliconfig.Overrides{}, []string{"XDG_CONFIG_HOME=" + xdg})
	require.Error(t, err)
	assert.ErrorIs(t, err, cliconfig.ErrWorkspaceRootEmpty)
}

func TestLoad_RejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	xdg := t.TempDir()

	projectPath := filepath.Join(workDir, cliconfig.ConfigFileName)
	require.NoError(t, os.WriteFile(projectPath, []byte(`{not valid`), 0o644))

	_, _, err := cliconfig.Load(workDir, cliconfig.Overrides{}, []string{"XDG_CONFIG_HOME=" + xdg})
	require.Error(t, err)
}
