package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaults and the individual field rules.
func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Files:        []string{"main.py", "lambda_handler.py"},
		Dependencies: []string{"fastapi"},
		Installers:   []string{"uv"},
	}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultWorkspace, cfg.Workspace)
	require.Equal(t, DefaultArchive, cfg.Archive)
	require.Equal(t, DefaultEntryPoint, cfg.EntryPoint)
	require.Equal(t, "lambda_handler.py", cfg.EntryPointFile())

	cases := map[string]func(c *Config){
		"nested archive":       func(c *Config) { c.Archive = "out/lambda.zip" },
		"dot workspace":        func(c *Config) { c.Workspace = "." },
		"archive is workspace": func(c *Config) { c.Archive = c.Workspace },
		"no files":             func(c *Config) { c.Files = nil },
		"colliding files":      func(c *Config) { c.Files = append(c.Files, "src/main.py") },
		"no dependencies":      func(c *Config) { c.Dependencies = nil },
		"blank dependency":     func(c *Config) { c.Dependencies = []string{" "} },
		"no installers":        func(c *Config) { c.Installers = nil },
		"bad log level":        func(c *Config) { c.LogLevel = "loud" },
		"bad entry point":      func(c *Config) { c.EntryPoint = "handler" },
		"nested entry point":   func(c *Config) { c.EntryPoint = "app.lambda_handler.handler" },
		"unknown entry module": func(c *Config) { c.EntryPoint = "other.handler" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := Default()
			mutate(c)
			require.ErrorIs(t, Validate(c), ErrInvalid)
		})
	}

	require.Error(t, Validate(nil))
}

// TestValidate_PyProjectOnly accepts an empty dependency list when a pyproject is given.
func TestValidate_PyProjectOnly(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Dependencies = nil
	cfg.PyProject = "pyproject.toml"

	require.NoError(t, Validate(cfg))
}

// TestLoad_Defaults uses built-in settings when no file is given.
func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

// TestLocate prefers an explicit path, then the project default, then nothing.
func TestLocate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.Equal(t, "custom.yaml", Locate(root, "custom.yaml"))
	require.Empty(t, Locate(root, ""))

	require.NoError(t, Save(filepath.Join(root, DefaultConfigFilename), Default()))
	require.Equal(t, filepath.Join(root, DefaultConfigFilename), Locate(root, ""))
}

// TestLoad_ExplicitPathMustExist rejects a missing explicit settings file.
func TestLoad_ExplicitPathMustExist(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings := Default()
	settings.Archive = "function.zip"
	settings.Dependencies = []string{"fastapi==0.115.0", "mangum"}
	settings.PythonPlatform = "x86_64-manylinux2014"
	settings.Manifest = true

	require.NoError(t, Save(path, settings))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)
}

// TestLoad_EnvironmentOverrides checks LAMBDA_PACKAGER_* variables win over the file.
func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, Save(path, Default()))

	t.Setenv("LAMBDA_PACKAGER_ARCHIVE", "override.zip")
	t.Setenv("LAMBDA_PACKAGER_DEPENDENCIES", "fastapi,boto3")
	t.Setenv("LAMBDA_PACKAGER_MANIFEST", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "override.zip", cfg.Archive)
	require.Equal(t, []string{"fastapi", "boto3"}, cfg.Dependencies)
	require.True(t, cfg.Manifest)
}

// TestSave_Nil rejects a nil configuration.
func TestSave_Nil(t *testing.T) {
	t.Parallel()

	require.Error(t, Save(filepath.Join(t.TempDir(), "x.yaml"), nil))
}
