package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// baseCLI holds what the uv and pip wrappers share: a resolved binary and
// helpers to run it.
type baseCLI struct {
	name       string
	binaryPath string
}

// lookPathFirst returns the first of names found on PATH, or "".
func lookPathFirst(names ...string) string {
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}

// Name returns the installer name.
func (b *baseCLI) Name() string {
	return b.name
}

// BinaryPath returns the resolved executable, empty when not found.
func (b *baseCLI) BinaryPath() string {
	return b.binaryPath
}

func (b *baseCLI) command(ctx context.Context, args ...string) *exec.Cmd {
	//nolint:gosec // The binary comes from PATH lookup of a fixed tool name.
	return exec.CommandContext(ctx, b.binaryPath, args...)
}

// output runs the binary and returns trimmed stdout.
func (b *baseCLI) output(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := b.command(ctx, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", b.name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

// probe reports whether `<binary> --version` succeeds.
func (b *baseCLI) probe() bool {
	if b.binaryPath == "" {
		return false
	}

	return b.command(context.Background(), "--version").Run() == nil
}

// install runs an install command, streaming output to the configured writers.
func (b *baseCLI) install(ctx context.Context, opts *InstallOptions, args []string) error {
	cmd := b.command(ctx, args...)
	cmd.Stdout = writerOrDiscard(opts.Stdout)
	cmd.Stderr = writerOrDiscard(opts.Stderr)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s interrupted: %w", ErrInstallFailed, b.name, ctxErr)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s exited with code %d", ErrInstallFailed, b.name, exitErr.ExitCode())
		}

		return fmt.Errorf("%w: %s: %w", ErrInstallFailed, b.name, err)
	}

	return nil
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}

	return w
}
