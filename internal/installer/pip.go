package installer

import (
	"context"
	"fmt"
)

// Pip installs packages with `pip install --target`.
type Pip struct {
	*baseCLI
}

// NewPip creates a pip installer bound to pip3, or pip, on PATH.
func NewPip() *Pip {
	return &Pip{
		baseCLI: &baseCLI{
			name:       string(TypePip),
			binaryPath: lookPathFirst("pip3", "pip"),
		},
	}
}

// Available checks if pip is installed and runnable.
func (p *Pip) Available() bool {
	return p.probe()
}

// Version returns the output of `pip --version`.
func (p *Pip) Version(ctx context.Context) (string, error) {
	out, err := p.output(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf("get pip version: %w", err)
	}

	return out, nil
}

// Install resolves opts.Packages into opts.Target.
func (p *Pip) Install(ctx context.Context, opts InstallOptions) error {
	if err := validateOptions(&opts); err != nil {
		return err
	}

	return p.install(ctx, &opts, p.InstallArgs(&opts))
}

// InstallArgs builds the pip argument list for opts.
// Cross-platform resolution requires binary wheels only.
func (p *Pip) InstallArgs(opts *InstallOptions) []string {
	args := []string{"install", "--target", opts.Target, "--disable-pip-version-check", "--no-input"}

	if opts.PythonPlatform != "" {
		args = append(args, "--platform", opts.PythonPlatform)
	}

	if opts.PythonVersion != "" {
		args = append(args, "--python-version", opts.PythonVersion)
	}

	if opts.PythonPlatform != "" || opts.PythonVersion != "" {
		args = append(args, "--only-binary=:all:")
	}

	args = append(args, opts.ExtraArgs...)

	return append(args, opts.Packages...)
}
