package packager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arm-dev024/api-samnilabs/internal/archive"
	"github.com/arm-dev024/api-samnilabs/internal/config"
	"github.com/arm-dev024/api-samnilabs/internal/installer"
	"github.com/arm-dev024/api-samnilabs/internal/logger"
	"github.com/arm-dev024/api-samnilabs/internal/manifest"
	"github.com/arm-dev024/api-samnilabs/internal/pyproject"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ProjectRoot is the directory holding the application files (defaults to ".").
	ProjectRoot string
	// ConfigPath is an optional settings file; see config.Locate.
	ConfigPath string
	// Config, when set, is used instead of loading ConfigPath.
	Config *config.Config
	// GuardProcessName enables the concurrent-run check for processes with this executable name.
	GuardProcessName string
	// InstallerOutput receives installer stdout and stderr (defaults to os.Stderr).
	InstallerOutput io.Writer
	// LogLevel overrides the configured log level when set.
	LogLevel string
}

// Result describes a successful run.
type Result struct {
	// ArchivePath is the absolute path of the produced archive.
	ArchivePath string
	// EntryPoint is the handler reference to configure on the function.
	EntryPoint string
	// Installer is the name of the installer that resolved the dependencies.
	Installer string
	// Files is the number of files in the archive.
	Files int
	// Size is the archive size in bytes.
	Size int64
	// ManifestPath is set when a manifest was written.
	ManifestPath string
}

// Error classes of a failed run. Every error returned by Package wraps exactly one.
var (
	// ErrConfiguration covers invalid settings and missing installer tools.
	ErrConfiguration = errors.New("configuration error")
	// ErrResolution covers failed installer invocations.
	ErrResolution = errors.New("dependency resolution error")
	// ErrFilesystem covers clean, copy, archive and cleanup failures.
	ErrFilesystem = errors.New("filesystem error")
)

// packager holds the state of a single run.
// It is unexported; callers use Package or Run.
type packager struct {
	// root is the absolute project root.
	root string
	// cfg holds the validated settings.
	cfg *config.Config
	// output receives installer output.
	output io.Writer
	// dependencies is the final dependency set, pyproject entries included.
	dependencies []string
	// extraArgs are the parsed installer_args.
	extraArgs []string
	// installer is the selected installer.
	installer installer.Installer
}

// Run executes the packaging workflow and logs the outcome.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "lambda-packager")

	result, err := Package(ctx, opts)
	if err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.InfoKV(ctx, "Packager completed successfully",
		"archive", result.ArchivePath,
		"files", result.Files,
		"bytes", result.Size,
		"installer", result.Installer,
	)

	printNextSteps(ctx, result)

	return nil
}

// Package builds the archive and returns where it was written.
func Package(ctx context.Context, opts *Options) (*Result, error) {
	pkg, err := newPackager(ctx, opts)
	if err != nil {
		return nil, err
	}

	return pkg.Run(ctx)
}

// newPackager resolves the project root and settings.
func newPackager(ctx context.Context, opts *Options) (*packager, error) {
	if opts == nil {
		opts = new(Options)
	}

	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve project root: %w", ErrFilesystem, err)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg, err = config.Load(config.Locate(root, opts.ConfigPath))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	} else if err = config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}

	parsed, ok := logger.ParseLogLevel(level)
	if !ok {
		return nil, fmt.Errorf("%w: unknown log level %q", ErrConfiguration, level)
	}

	logger.SetLevel(parsed)

	if opts.GuardProcessName != "" {
		if err = checkNoConcurrentRun(ctx, opts.GuardProcessName, root); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}

	output := opts.InstallerOutput
	if output == nil {
		output = os.Stderr
	}

	return &packager{
		root:   root,
		cfg:    cfg,
		output: output,
	}, nil
}

// Run performs the packaging steps in order, stopping at the first failure.
func (p *packager) Run(ctx context.Context) (*Result, error) {
	logger.InfoKV(ctx, "Cleaning previous build", "workspace", p.cfg.Workspace, "archive", p.cfg.Archive)

	if err := p.clean(); err != nil {
		return nil, fmt.Errorf("%w: clean: %w", ErrFilesystem, err)
	}

	if err := p.prepare(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	logger.InfoKV(ctx, "Creating workspace", "path", p.workspace())

	if err := os.Mkdir(p.workspace(), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create workspace: %w", ErrFilesystem, err)
	}

	logger.InfoKV(ctx, "Resolving dependencies",
		"installer", p.installer.Name(),
		"dependencies", strings.Join(p.dependencies, " "),
	)

	if err := p.resolve(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	logger.InfoKV(ctx, "Copying application files", "files", strings.Join(p.cfg.Files, " "))

	if err := p.copyFiles(); err != nil {
		return nil, fmt.Errorf("%w: copy application files: %w", ErrFilesystem, err)
	}

	logger.InfoKV(ctx, "Compressing workspace", "archive", p.archivePath())

	info, err := archive.Create(ctx, p.workspace(), p.archivePath())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	if err = os.RemoveAll(p.workspace()); err != nil {
		return nil, fmt.Errorf("%w: remove workspace: %w", ErrFilesystem, err)
	}

	result := &Result{
		ArchivePath: info.Path,
		EntryPoint:  p.cfg.EntryPoint,
		Installer:   p.installer.Name(),
		Files:       info.Files,
		Size:        info.Size,
	}

	if p.cfg.Manifest {
		logger.InfoKV(ctx, "Saving build manifest", "path", p.manifestPath())

		if err = p.writeManifest(ctx, info); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
		}

		result.ManifestPath = p.manifestPath()
	}

	return result, nil
}

// clean removes the workspace, the archive and the manifest of a previous
// run. The manifest goes even when disabled so it never describes an archive
// it was not written for.
func (p *packager) clean() error {
	if err := os.RemoveAll(p.workspace()); err != nil {
		return err
	}

	for _, path := range []string{p.archivePath(), p.manifestPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}

// prepare settles everything that can fail for configuration reasons before
// the workspace exists: the dependency set, installer arguments and the
// installer itself.
func (p *packager) prepare(ctx context.Context) error {
	p.dependencies = append([]string(nil), p.cfg.Dependencies...)

	if p.cfg.PyProject != "" {
		file, err := pyproject.Load(p.resolvePath(p.cfg.PyProject))
		if err != nil {
			return err
		}

		p.dependencies = pyproject.Merge(p.dependencies, file.Dependencies(p.cfg.PyProjectExtras...))
	}

	if len(p.dependencies) == 0 {
		return errNoDependencies
	}

	extraArgs, err := installer.SplitArgs(p.cfg.InstallerArgs)
	if err != nil {
		return err
	}

	p.extraArgs = extraArgs

	inst, err := installer.Select(p.cfg.Installers)
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "Selected installer", "installer", inst.Name())

	p.installer = inst

	return nil
}

// resolve materializes the dependency set into the workspace.
func (p *packager) resolve(ctx context.Context) error {
	return p.installer.Install(ctx, installer.InstallOptions{
		Target:         p.workspace(),
		Packages:       p.dependencies,
		PythonPlatform: p.cfg.PythonPlatform,
		PythonVersion:  p.cfg.PythonVersion,
		ExtraArgs:      p.extraArgs,
		Stdout:         p.output,
		Stderr:         p.output,
	})
}

// copyFiles copies the application files flat into the workspace root.
func (p *packager) copyFiles() error {
	for _, name := range p.cfg.Files {
		src := p.resolvePath(name)
		dst := filepath.Join(p.workspace(), filepath.Base(name))

		if err := copyFile(src, dst); err != nil {
			return err
		}
	}

	return nil
}

// writeManifest records checksums of the archive and application files.
func (p *packager) writeManifest(ctx context.Context, info *archive.Info) error {
	desc := manifest.New()
	desc.EntryPoint = p.cfg.EntryPoint
	desc.Dependencies = p.dependencies
	desc.Installer = p.installer.Name()

	if v, err := p.installer.Version(ctx); err == nil {
		desc.Installer = v
	}

	if actor, err := manifest.DetectActor(); err == nil {
		desc.Actor = actor
	} else {
		logger.WarnKV(ctx, "Unable to detect build actor", "error", err)
	}

	for _, name := range p.cfg.Files {
		if err := desc.AddFile(filepath.Base(name), p.resolvePath(name)); err != nil {
			return err
		}
	}

	desc.SetArchive(p.cfg.Archive, info)

	return desc.Save(p.manifestPath())
}

func (p *packager) workspace() string {
	return filepath.Join(p.root, p.cfg.Workspace)
}

func (p *packager) archivePath() string {
	return filepath.Join(p.root, p.cfg.Archive)
}

func (p *packager) manifestPath() string {
	return filepath.Join(p.root, p.cfg.ManifestFile)
}

// resolvePath interprets relative settings paths against the project root.
func (p *packager) resolvePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(p.root, name)
}

// printNextSteps logs human-readable guidance for deploying the archive.
func printNextSteps(ctx context.Context, result *Result) {
	var builder strings.Builder

	builder.WriteString("Upload ")
	builder.WriteString(result.ArchivePath)
	builder.WriteString(" to the function and set its handler to ")
	builder.WriteString(result.EntryPoint)

	if result.ManifestPath != "" {
		builder.WriteString("\nBuild manifest: ")
		builder.WriteString(result.ManifestPath)
	}

	logger.Info(ctx, builder.String())
}
