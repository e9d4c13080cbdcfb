package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/arm-dev024/api-samnilabs/internal/logger"
)

// Config holds everything a packaging run needs besides the project root.
type Config struct {
	// Workspace is the scratch directory name, relative to the project root.
	Workspace string `yaml:"workspace" mapstructure:"workspace"`
	// Archive is the output archive name, relative to the project root.
	Archive string `yaml:"archive" mapstructure:"archive"`
	// EntryPoint is the handler reference reported after a successful run.
	EntryPoint string `yaml:"entry_point" mapstructure:"entry_point"`
	// Files are the application sources copied flat into the workspace.
	Files []string `yaml:"files" mapstructure:"files"`
	// Dependencies are the packages resolved into the workspace.
	Dependencies []string `yaml:"dependencies" mapstructure:"dependencies"`
	// PyProject optionally names a pyproject.toml whose dependencies extend Dependencies.
	PyProject string `yaml:"pyproject,omitempty" mapstructure:"pyproject"`
	// PyProjectExtras selects optional-dependency groups of PyProject to include.
	PyProjectExtras []string `yaml:"pyproject_extras,omitempty" mapstructure:"pyproject_extras"`
	// Installers lists installer tools in order of preference.
	Installers []string `yaml:"installers" mapstructure:"installers"`
	// InstallerArgs are extra shell-quoted arguments passed to the installer.
	InstallerArgs string `yaml:"installer_args,omitempty" mapstructure:"installer_args"`
	// PythonPlatform pins the target platform of binary wheels (e.g. x86_64-manylinux2014).
	PythonPlatform string `yaml:"python_platform,omitempty" mapstructure:"python_platform"`
	// PythonVersion pins the target interpreter version (e.g. 3.12).
	PythonVersion string `yaml:"python_version,omitempty" mapstructure:"python_version"`
	// Manifest enables writing the build manifest next to the archive.
	Manifest bool `yaml:"manifest" mapstructure:"manifest"`
	// ManifestFile is the manifest name, relative to the project root.
	ManifestFile string `yaml:"manifest_file" mapstructure:"manifest_file"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

const (
	// DefaultConfigFilename is the settings file looked up in the project root.
	DefaultConfigFilename = "lambda-packager.yaml"

	// DefaultWorkspace is the transient build directory.
	DefaultWorkspace = ".lambda_package"

	// DefaultArchive is the output archive.
	DefaultArchive = "lambda.zip"

	// DefaultEntryPoint is the Lambda handler reference of the packaged app.
	DefaultEntryPoint = "lambda_handler.handler"

	// DefaultManifestFile is the build manifest written when enabled.
	DefaultManifestFile = "lambda-manifest.yaml"

	// DefaultFilePermissions is the permission used for files written by the packager.
	DefaultFilePermissions = 0o644

	// EnvPrefix prefixes environment overrides, e.g. LAMBDA_PACKAGER_ARCHIVE.
	EnvPrefix = "LAMBDA_PACKAGER"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrInvalid marks every validation failure.
	ErrInvalid = errors.New("invalid configuration")
)

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Workspace:    DefaultWorkspace,
		Archive:      DefaultArchive,
		EntryPoint:   DefaultEntryPoint,
		Files:        []string{"main.py", "lambda_handler.py"},
		Dependencies: []string{"fastapi", "mangum", "pydantic-settings"},
		Installers:   []string{"uv", "pip"},
		ManifestFile: DefaultManifestFile,
		LogLevel:     "info",
	}
}

// Locate returns the settings file for a project: path itself when given,
// otherwise DefaultConfigFilename inside root if it exists, otherwise "".
func Locate(root, path string) string {
	if path != "" {
		return path
	}

	candidate := filepath.Join(root, DefaultConfigFilename)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}

	return ""
}

// Load merges defaults, the settings file at path and environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("workspace", defaults.Workspace)
	v.SetDefault("archive", defaults.Archive)
	v.SetDefault("entry_point", defaults.EntryPoint)
	v.SetDefault("files", defaults.Files)
	v.SetDefault("dependencies", defaults.Dependencies)
	v.SetDefault("pyproject", defaults.PyProject)
	v.SetDefault("pyproject_extras", defaults.PyProjectExtras)
	v.SetDefault("installers", defaults.Installers)
	v.SetDefault("installer_args", defaults.InstallerArgs)
	v.SetDefault("python_platform", defaults.PythonPlatform)
	v.SetDefault("python_version", defaults.PythonVersion)
	v.SetDefault("manifest", defaults.Manifest)
	v.SetDefault("manifest_file", defaults.ManifestFile)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(filepath.Clean(path))
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to the provided path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for empty optional fields and checks the rest.
//
//nolint:cyclop // A flat list of field checks reads best in one place.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Workspace == "" {
		cfg.Workspace = DefaultWorkspace
	}

	if cfg.Archive == "" {
		cfg.Archive = DefaultArchive
	}

	if cfg.EntryPoint == "" {
		cfg.EntryPoint = DefaultEntryPoint
	}

	if cfg.ManifestFile == "" {
		cfg.ManifestFile = DefaultManifestFile
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if len(cfg.PyProjectExtras) == 0 {
		cfg.PyProjectExtras = nil
	}

	if err := checkPlainName("workspace", cfg.Workspace); err != nil {
		return err
	}

	if err := checkPlainName("archive", cfg.Archive); err != nil {
		return err
	}

	if err := checkPlainName("manifest_file", cfg.ManifestFile); err != nil {
		return err
	}

	if cfg.Workspace == cfg.Archive || cfg.Workspace == cfg.ManifestFile || cfg.Archive == cfg.ManifestFile {
		return fmt.Errorf("%w: workspace, archive and manifest_file must differ", ErrInvalid)
	}

	if len(cfg.Files) == 0 {
		return fmt.Errorf("%w: at least one application file is required", ErrInvalid)
	}

	seen := make(map[string]string, len(cfg.Files))
	for _, file := range cfg.Files {
		if strings.TrimSpace(file) == "" {
			return fmt.Errorf("%w: empty application file name", ErrInvalid)
		}

		base := filepath.Base(file)
		if prev, dup := seen[base]; dup {
			return fmt.Errorf("%w: %s and %s collide in the flat workspace", ErrInvalid, prev, file)
		}

		seen[base] = file
	}

	if len(cfg.Dependencies) == 0 && cfg.PyProject == "" {
		return fmt.Errorf("%w: no dependencies and no pyproject given", ErrInvalid)
	}

	for _, dep := range cfg.Dependencies {
		if strings.TrimSpace(dep) == "" {
			return fmt.Errorf("%w: empty dependency name", ErrInvalid)
		}
	}

	if len(cfg.Installers) == 0 {
		return fmt.Errorf("%w: at least one installer is required", ErrInvalid)
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, cfg.LogLevel)
	}

	// The workspace is flat, so the handler module must be top-level.
	module, function, ok := strings.Cut(cfg.EntryPoint, ".")
	if !ok || module == "" || function == "" || strings.Contains(function, ".") {
		return fmt.Errorf("%w: entry point %q must look like module.function", ErrInvalid, cfg.EntryPoint)
	}

	if _, found := seen[cfg.EntryPointFile()]; !found {
		return fmt.Errorf("%w: entry point module %s is not among the application files", ErrInvalid, cfg.EntryPointFile())
	}

	return nil
}

// EntryPointFile returns the source file that defines the entry point,
// e.g. lambda_handler.py for lambda_handler.handler.
func (c *Config) EntryPointFile() string {
	module, _, ok := strings.Cut(c.EntryPoint, ".")
	if !ok || module == "" {
		return ""
	}

	return module + ".py"
}

func checkPlainName(field, name string) error {
	if name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("%w: %s %q must be a plain name inside the project root", ErrInvalid, field, name)
	}

	return nil
}
