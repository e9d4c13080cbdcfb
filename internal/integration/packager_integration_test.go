package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arm-dev024/api-samnilabs/internal/config"
	"github.com/arm-dev024/api-samnilabs/internal/installer/installertest"
	"github.com/arm-dev024/api-samnilabs/internal/manifest"
	"github.com/arm-dev024/api-samnilabs/internal/service/inspector"
	"github.com/arm-dev024/api-samnilabs/internal/service/packager"
)

// chdirProject creates a project with the default application files and makes it the working directory.
func chdirProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile("main.py", []byte("from fastapi import FastAPI\napp = FastAPI()\n"), 0o644))
	require.NoError(t, os.WriteFile("lambda_handler.py", []byte("from mangum import Mangum\nfrom main import app\nhandler = Mangum(app)\n"), 0o644))

	return dir
}

// TestPackager_BuildAndInspect packages a project configured by a settings
// file and verifies the result with the inspector.
func TestPackager_BuildAndInspect(t *testing.T) {
	dir := chdirProject(t)

	bin := t.TempDir()
	installertest.WriteUV(t, bin)
	installertest.UsePath(t, bin)

	cfg := config.Default()
	cfg.Manifest = true
	require.NoError(t, config.Save(config.DefaultConfigFilename, cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := packager.Run(ctx, &packager.Options{ConfigPath: config.DefaultConfigFilename})
	require.NoError(t, err)

	require.NoDirExists(t, filepath.Join(dir, config.DefaultWorkspace))
	require.FileExists(t, filepath.Join(dir, config.DefaultArchive))
	require.FileExists(t, filepath.Join(dir, config.DefaultManifestFile))

	report, err := inspector.Inspect(ctx, &inspector.Options{ConfigPath: config.DefaultConfigFilename})
	require.NoError(t, err)
	require.Equal(t, config.DefaultManifestFile, report.ManifestPath)
	require.Contains(t, report.Entries, "lambda_handler.py")
	require.Contains(t, report.Entries, "pydantic-settings/__init__.py")

	desc, err := manifest.Load(config.DefaultManifestFile)
	require.NoError(t, err)
	require.Equal(t, "lambda_handler.handler", desc.EntryPoint)
	require.Equal(t, "uv 0.0.0-fake", desc.Installer)
	require.NotEmpty(t, desc.BuildID)
}

// TestPackager_RebuildReplacesArtifact runs twice and checks the second
// build replaces the first with equivalent contents.
func TestPackager_RebuildReplacesArtifact(t *testing.T) {
	chdirProject(t)

	bin := t.TempDir()
	installertest.WritePip(t, bin)
	installertest.UsePath(t, bin)

	ctx := context.Background()

	first, err := packager.Package(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, "pip", first.Installer)

	before, err := inspector.Inspect(ctx, nil)
	require.NoError(t, err)

	second, err := packager.Package(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, first.ArchivePath, second.ArchivePath)

	after, err := inspector.Inspect(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, before.Entries, after.Entries)

	installs := 0

	for _, call := range installertest.Calls(t, bin) {
		if strings.HasPrefix(call, "pip3 install ") {
			installs++
		}
	}

	require.Equal(t, 2, installs)
}

// TestPackager_InspectAfterManifestlessRebuild accepts an archive rebuilt
// with the manifest turned off.
func TestPackager_InspectAfterManifestlessRebuild(t *testing.T) {
	chdirProject(t)

	bin := t.TempDir()
	installertest.WriteUV(t, bin)
	installertest.UsePath(t, bin)

	ctx := context.Background()

	cfg := config.Default()
	cfg.Manifest = true

	_, err := packager.Package(ctx, &packager.Options{Config: cfg})
	require.NoError(t, err)

	_, err = packager.Package(ctx, nil)
	require.NoError(t, err)

	report, err := inspector.Inspect(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, report.ManifestPath)
}

// TestPackager_NoInstallerLeavesNothing fails before creating the workspace.
func TestPackager_NoInstallerLeavesNothing(t *testing.T) {
	dir := chdirProject(t)

	installertest.UsePath(t, t.TempDir())

	err := packager.Run(context.Background(), nil)
	require.ErrorIs(t, err, packager.ErrConfiguration)
	require.NoDirExists(t, filepath.Join(dir, config.DefaultWorkspace))
	require.NoFileExists(t, filepath.Join(dir, config.DefaultArchive))
}
