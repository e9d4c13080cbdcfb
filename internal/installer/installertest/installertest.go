// Package installertest writes fake uv and pip executables for tests.
//
// The fakes understand `--version` and `[pip] install --target DIR ... PKG...`
// and create DIR/<pkg>/__init__.py for every requested package. Each
// invocation is appended to calls.log in the fake's directory.
package installertest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// CallsLog is the file every fake appends its arguments to.
const CallsLog = "calls.log"

const fakeScript = `#!/bin/sh
PATH=/usr/bin:/bin
export PATH
echo "%[1]s $*" >> "%[2]s"
if [ "$1" = "--version" ]; then
	echo "%[1]s 0.0.0-fake"
	exit 0
fi
[ "$1" = "pip" ] && shift
if [ "$1" != "install" ]; then
	echo "unexpected arguments: $*" >&2
	exit 2
fi
shift
%[3]s
target=""
while [ $# -gt 0 ]; do
	case "$1" in
		--target|--python-platform|--python-version|--platform|--index-url|--extra-index-url)
			[ "$1" = "--target" ] && target="$2"
			shift 2
			;;
		-*)
			shift
			;;
		*)
			name=$(echo "$1" | sed 's/[<>=!~;[ ].*//')
			mkdir -p "$target/$name" || exit 1
			echo "# $1" > "$target/$name/__init__.py" || exit 1
			shift
			;;
	esac
done
`

// WriteUV writes a working fake uv into dir.
func WriteUV(t *testing.T, dir string) string {
	t.Helper()

	return write(t, dir, "uv", "")
}

// WritePip writes a working fake pip3 into dir.
func WritePip(t *testing.T, dir string) string {
	t.Helper()

	return write(t, dir, "pip3", "")
}

// WriteFailing writes a fake named name whose install step fails after
// creating a partial package in the target.
func WriteFailing(t *testing.T, dir, name string) string {
	t.Helper()

	failure := `for a in "$@"; do
	if [ "$prev" = "--target" ]; then mkdir -p "$a/partial"; fi
	prev="$a"
done
echo "resolution failed" >&2
exit 1`

	return write(t, dir, name, failure)
}

// UsePath replaces PATH with dirs for the rest of the test.
func UsePath(t *testing.T, dirs ...string) {
	t.Helper()

	t.Setenv("PATH", strings.Join(dirs, string(os.PathListSeparator)))
}

// Calls returns the invocations recorded in dir, one per line.
func Calls(t *testing.T, dir string) []string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, CallsLog))
	if os.IsNotExist(err) {
		return nil
	}

	require.NoError(t, err)

	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func write(t *testing.T, dir, name, beforeInstall string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	script := fmt.Sprintf(fakeScript, name, filepath.Join(dir, CallsLog), beforeInstall)

	//nolint:gosec // Test executables must be executable.
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	return path
}
