package archive

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, contents := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
}

// TestCreate_RootEqualsSource checks entries are relative to the source directory.
func TestCreate_RootEqualsSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, ".lambda_package")
	writeTree(t, src, map[string]string{
		"main.py":              "app = None\n",
		"lambda_handler.py":    "handler = None\n",
		"fastapi/__init__.py":  "",
		"fastapi/routing.py":   "",
		"mangum/__init__.py":   "",
		"mangum/adapter/a.txt": "x",
	})

	dst := filepath.Join(dir, "lambda.zip")

	info, err := Create(context.Background(), src, dst)
	require.NoError(t, err)
	require.Equal(t, dst, info.Path)
	require.Equal(t, 6, info.Files)

	names, err := List(dst)
	require.NoError(t, err)

	want := []string{
		"fastapi/__init__.py",
		"fastapi/routing.py",
		"lambda_handler.py",
		"main.py",
		"mangum/__init__.py",
		"mangum/adapter/a.txt",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("archive entries mismatch (-want +got):\n%s", diff)
	}

	stat, err := os.Stat(dst)
	require.NoError(t, err)
	require.Equal(t, stat.Size(), info.Size)

	checksum, err := Checksum(dst)
	require.NoError(t, err)
	require.True(t, bytes.Equal(checksum, info.Checksum))

	_, err = os.Stat(filepath.Join(dir, ".lambda.zip.old"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestCreate_ReplacesExisting overwrites a previous archive.
func TestCreate_ReplacesExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeTree(t, src, map[string]string{"main.py": "v2"})

	dst := filepath.Join(dir, "lambda.zip")
	require.NoError(t, os.WriteFile(dst, []byte("stale archive"), 0o644))

	_, err := Create(context.Background(), src, dst)
	require.NoError(t, err)

	names, err := List(dst)
	require.NoError(t, err)
	require.Equal(t, []string{"main.py"}, names)
}

// TestCreate_MissingSource leaves no archive behind.
func TestCreate_MissingSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dst := filepath.Join(dir, "lambda.zip")

	_, err := Create(context.Background(), filepath.Join(dir, "absent"), dst)
	require.Error(t, err)
	require.NoFileExists(t, dst)
}

// TestCreate_Canceled stops walking when the context is done.
func TestCreate_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeTree(t, src, map[string]string{"main.py": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := filepath.Join(dir, "lambda.zip")

	_, err := Create(ctx, src, dst)
	require.ErrorIs(t, err, context.Canceled)
	require.NoFileExists(t, dst)
}

// TestCreate_NoTemporaryFilesLeft removes the staging file after success and failure.
func TestCreate_NoTemporaryFilesLeft(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeTree(t, src, map[string]string{"main.py": "app = None\n"})

	dst := filepath.Join(dir, "lambda.zip")

	_, err := Create(context.Background(), src, dst)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Create(ctx, src, filepath.Join(dir, "canceled.zip"))
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	require.ElementsMatch(t, []string{"lambda.zip", "src"}, names)
}

// TestCreate_FollowsFileSymlinks stores a symlinked file as a regular entry.
func TestCreate_FollowsFileSymlinks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeTree(t, src, map[string]string{"real.py": "print(1)\n"})
	require.NoError(t, os.Symlink(filepath.Join(src, "real.py"), filepath.Join(src, "link.py")))

	dst := filepath.Join(dir, "out.zip")

	info, err := Create(context.Background(), src, dst)
	require.NoError(t, err)
	require.Equal(t, 2, info.Files)
}

// TestList_NotAnArchive reports an error for arbitrary files.
func TestList_NotAnArchive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lambda.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := List(path)
	require.Error(t, err)
}
