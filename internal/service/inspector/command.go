package inspector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/arm-dev024/api-samnilabs/internal/archive"
	"github.com/arm-dev024/api-samnilabs/internal/config"
	"github.com/arm-dev024/api-samnilabs/internal/logger"
	"github.com/arm-dev024/api-samnilabs/internal/manifest"
)

// Options contains inputs for the inspector entry point.
type Options struct {
	// ProjectRoot is the directory the archive was built in (defaults to ".").
	ProjectRoot string
	// ConfigPath is an optional settings file; see config.Locate.
	ConfigPath string
	// Config, when set, is used instead of loading ConfigPath.
	Config *config.Config
	// ArchivePath overrides the configured archive.
	ArchivePath string
	// ManifestPath overrides the configured manifest. When empty the configured
	// manifest is checked only if it exists.
	ManifestPath string
	// Out receives the entry listing (defaults to os.Stdout).
	Out io.Writer
}

// Report is the outcome of a successful inspection.
type Report struct {
	// ArchivePath is the inspected archive.
	ArchivePath string
	// Entries are the archive's file entries, sorted.
	Entries []string
	// ManifestPath is set when the archive was verified against a manifest.
	ManifestPath string
}

var (
	// ErrMissingEntry is returned when a required file is not at the archive root.
	ErrMissingEntry = errors.New("archive is missing a required file")
)

// Run inspects the archive, prints its entries and logs the verdict.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "lambda-inspector")

	report, err := Inspect(ctx, opts)
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	for _, entry := range report.Entries {
		if _, err = fmt.Fprintln(out, entry); err != nil {
			return fmt.Errorf("print entries: %w", err)
		}
	}

	logger.InfoKV(ctx, "Archive looks deployable",
		"archive", report.ArchivePath,
		"files", len(report.Entries),
		"manifest", report.ManifestPath,
	)

	return nil
}

// Inspect lists and verifies the archive.
func Inspect(ctx context.Context, opts *Options) (*Report, error) {
	if opts == nil {
		opts = new(Options)
	}

	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}

	cfg := opts.Config
	if cfg == nil {
		var err error

		cfg, err = config.Load(config.Locate(root, opts.ConfigPath))
		if err != nil {
			return nil, err
		}
	} else if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	archivePath := opts.ArchivePath
	if archivePath == "" {
		archivePath = filepath.Join(root, cfg.Archive)
	}

	entries, err := archive.List(archivePath)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ArchivePath: archivePath,
		Entries:     entries,
	}

	present := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		present[entry] = struct{}{}
	}

	required := []string{cfg.EntryPointFile()}
	for _, name := range cfg.Files {
		required = append(required, filepath.Base(name))
	}

	if err = requireEntries(present, required); err != nil {
		return nil, err
	}

	manifestPath, err := locateManifest(root, cfg, opts.ManifestPath)
	if err != nil || manifestPath == "" {
		return report, err
	}

	logger.InfoKV(ctx, "Verifying archive against manifest", "manifest", manifestPath)

	desc, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	if err = desc.VerifyArchive(archivePath); err != nil {
		return nil, err
	}

	recorded := make([]string, 0, len(desc.Files))
	for name := range desc.Files {
		recorded = append(recorded, name)
	}

	if err = requireEntries(present, recorded); err != nil {
		return nil, err
	}

	report.ManifestPath = manifestPath

	return report, nil
}

// locateManifest returns the manifest to verify against, "" for none.
func locateManifest(root string, cfg *config.Config, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	path := filepath.Join(root, cfg.ManifestFile)

	switch _, err := os.Stat(path); {
	case err == nil:
		return path, nil
	case errors.Is(err, os.ErrNotExist):
		return "", nil
	default:
		return "", fmt.Errorf("stat manifest: %w", err)
	}
}

func requireEntries(present map[string]struct{}, names []string) error {
	for _, name := range names {
		if _, ok := present[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingEntry, name)
		}
	}

	return nil
}
