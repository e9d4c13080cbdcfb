package installer

import (
	"context"
	"fmt"
)

// UV installs packages with `uv pip install --target`.
type UV struct {
	*baseCLI
}

// NewUV creates a uv installer bound to the uv binary on PATH.
func NewUV() *UV {
	return &UV{
		baseCLI: &baseCLI{
			name:       string(TypeUV),
			binaryPath: lookPathFirst("uv"),
		},
	}
}

// Available checks if uv is installed and runnable.
func (u *UV) Available() bool {
	return u.probe()
}

// Version returns the output of `uv --version`.
func (u *UV) Version(ctx context.Context) (string, error) {
	out, err := u.output(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf("get uv version: %w", err)
	}

	return out, nil
}

// Install resolves opts.Packages into opts.Target.
func (u *UV) Install(ctx context.Context, opts InstallOptions) error {
	if err := validateOptions(&opts); err != nil {
		return err
	}

	return u.install(ctx, &opts, u.InstallArgs(&opts))
}

// InstallArgs builds the uv argument list for opts.
func (u *UV) InstallArgs(opts *InstallOptions) []string {
	args := []string{"pip", "install", "--target", opts.Target}

	if opts.PythonPlatform != "" {
		args = append(args, "--python-platform", opts.PythonPlatform)
	}

	if opts.PythonVersion != "" {
		args = append(args, "--python-version", opts.PythonVersion)
	}

	args = append(args, opts.ExtraArgs...)

	return append(args, opts.Packages...)
}
