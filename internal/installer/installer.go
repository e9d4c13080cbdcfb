package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// Installer resolves named packages into a target directory.
type Installer interface {
	// Name returns the installer name (uv or pip).
	Name() string
	// Available reports whether the tool is installed and runnable.
	Available() bool
	// Version returns the tool's self-reported version.
	Version(ctx context.Context) (string, error)
	// Install resolves opts.Packages into opts.Target.
	Install(ctx context.Context, opts InstallOptions) error
}

// InstallOptions describes a single dependency resolution.
type InstallOptions struct {
	// Target is the directory the packages are materialized into.
	Target string
	// Packages are requirement specifiers, e.g. "fastapi" or "mangum>=0.17".
	Packages []string
	// PythonPlatform restricts resolution to wheels for this platform.
	PythonPlatform string
	// PythonVersion restricts resolution to wheels for this interpreter version.
	PythonVersion string
	// ExtraArgs are appended verbatim before the package list.
	ExtraArgs []string
	// Stdout receives the tool's standard output.
	Stdout io.Writer
	// Stderr receives the tool's standard error.
	Stderr io.Writer
}

// Type identifies an installer tool.
type Type string

const (
	// TypeUV is Astral's uv, the faster of the two.
	TypeUV Type = "uv"
	// TypePip is the reference pip installer.
	TypePip Type = "pip"
)

var (
	// ErrInstallFailed wraps every failed dependency resolution.
	ErrInstallFailed = errors.New("dependency resolution failed")
	// ErrUnknownType is returned for installer names other than uv and pip.
	ErrUnknownType = errors.New("unknown installer")
	// errNoTarget is returned when InstallOptions carries no target directory.
	errNoTarget = errors.New("install target must be provided")
	// errNoPackages is returned when there is nothing to install.
	errNoPackages = errors.New("no packages to install")
)

// NotAvailableError is returned when none of the requested installers can be used.
type NotAvailableError struct {
	// Tried lists the installer names checked, in order.
	Tried []string
}

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("no installer available on PATH (tried %s)", strings.Join(e.Tried, ", "))
}

// ParseType converts a configured installer name into a Type.
func ParseType(name string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(name))); t {
	case TypeUV, TypePip:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}

// New creates the installer for t. The returned installer may be unavailable.
//
//nolint:ireturn // Callers choose between implementations at runtime.
func New(t Type) (Installer, error) {
	switch t {
	case TypeUV:
		return NewUV(), nil
	case TypePip:
		return NewPip(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// Select returns the first available installer from preference.
// Unknown names fail immediately, before any availability check.
//
//nolint:ireturn // Callers choose between implementations at runtime.
func Select(preference []string) (Installer, error) {
	types := make([]Type, 0, len(preference))

	for _, name := range preference {
		t, err := ParseType(name)
		if err != nil {
			return nil, err
		}

		types = append(types, t)
	}

	tried := make([]string, 0, len(types))

	for _, t := range types {
		inst, err := New(t)
		if err != nil {
			return nil, err
		}

		if inst.Available() {
			return inst, nil
		}

		tried = append(tried, string(t))
	}

	return nil, &NotAvailableError{Tried: tried}
}

// SplitArgs splits a shell-quoted argument string, expanding environment
// variables the way a POSIX shell would.
func SplitArgs(args string) ([]string, error) {
	if strings.TrimSpace(args) == "" {
		return nil, nil
	}

	fields, err := shell.Fields(args, nil)
	if err != nil {
		return nil, fmt.Errorf("parse installer arguments: %w", err)
	}

	return fields, nil
}

func validateOptions(opts *InstallOptions) error {
	if opts.Target == "" {
		return errNoTarget
	}

	if len(opts.Packages) == 0 {
		return errNoPackages
	}

	return nil
}
