package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arm-dev024/api-samnilabs/internal/archive"
	"github.com/arm-dev024/api-samnilabs/internal/version"
)

// TestDetectActor ensures hostname and username are detected and non-empty.
func TestDetectActor(t *testing.T) {
	t.Parallel()

	a, err := DetectActor()
	require.NoError(t, err)
	require.NotEmpty(t, a.Hostname)
	require.NotEmpty(t, a.Username)
}

// TestNew fills the version and a unique build ID.
func TestNew(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	require.Equal(t, version.Short(), a.PackagerVersion)
	require.NotEmpty(t, a.BuildID)
	require.NotEqual(t, a.BuildID, b.BuildID)
	require.NotNil(t, a.Files)
}

// TestSaveLoadVerify records an archive, reloads the manifest and verifies it.
func TestSaveLoadVerify(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))

	handler := filepath.Join(src, "lambda_handler.py")
	require.NoError(t, os.WriteFile(handler, []byte("handler = None\n"), 0o644))

	dst := filepath.Join(dir, "lambda.zip")
	info, err := archive.Create(context.Background(), src, dst)
	require.NoError(t, err)

	desc := New()
	desc.Installer = "uv 0.0.0"
	desc.EntryPoint = "lambda_handler.handler"
	desc.Dependencies = []string{"fastapi"}
	desc.Actor = &Actor{Hostname: "build-host", Username: "ci"}
	require.NoError(t, desc.AddFile("lambda_handler.py", handler))
	desc.SetArchive("lambda.zip", info)

	path := filepath.Join(dir, "lambda-manifest.yaml")
	require.NoError(t, desc.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, desc.BuildID, loaded.BuildID)
	require.True(t, desc.BuiltAt.Equal(loaded.BuiltAt))
	require.Equal(t, desc.Files, loaded.Files)
	require.Equal(t, desc.Archive, loaded.Archive)
	require.Equal(t, desc.Actor, loaded.Actor)

	require.NoError(t, loaded.VerifyArchive(dst))

	require.NoError(t, os.WriteFile(dst, []byte("tampered"), 0o644))
	require.ErrorIs(t, loaded.VerifyArchive(dst), ErrChecksumMismatch)
}

// TestVerifyArchive_NoChecksum rejects manifests without an archive record.
func TestVerifyArchive_NoChecksum(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, New().VerifyArchive("lambda.zip"), errNoChecksum)
}

// TestAddFile_Missing reports unreadable files.
func TestAddFile_Missing(t *testing.T) {
	t.Parallel()

	require.Error(t, New().AddFile("main.py", filepath.Join(t.TempDir(), "main.py")))
}
