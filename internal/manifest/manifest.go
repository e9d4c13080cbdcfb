package manifest

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/arm-dev024/api-samnilabs/internal/archive"
	"github.com/arm-dev024/api-samnilabs/internal/version"
)

const (
	// defaultMapCapacity is the initial capacity of the file map.
	defaultMapCapacity = 8

	// fileMode is the permission of written manifests.
	fileMode os.FileMode = 0o644
)

var (
	// ErrChecksumMismatch is returned when a file no longer matches the manifest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// errNoChecksum is returned when the manifest holds no checksum for a file.
	errNoChecksum = errors.New("checksum missing for file")
)

// Description contains metadata about one packaging run.
type Description struct {
	// PackagerVersion is the version of the packager that produced the build.
	PackagerVersion string `yaml:"packager_version"`
	// BuildID uniquely identifies the run.
	BuildID string `yaml:"build_id"`
	// BuiltAt is the UTC time the archive was committed.
	BuiltAt time.Time `yaml:"built_at"`
	// Actor is who ran the packager.
	Actor *Actor `yaml:"actor,omitempty"`
	// Installer is the tool name and version used to resolve dependencies.
	Installer string `yaml:"installer"`
	// EntryPoint is the handler reference of the packaged application.
	EntryPoint string `yaml:"entry_point"`
	// Dependencies are the requested requirement specifiers.
	Dependencies []string `yaml:"dependencies"`
	// Files maps application file names to base64-encoded checksums.
	Files map[string]string `yaml:"files"`
	// Archive describes the produced archive.
	Archive Artifact `yaml:"archive"`
}

// Artifact names a file and its base64-encoded checksum.
type Artifact struct {
	// Name is the file name relative to the project root.
	Name string `yaml:"name"`
	// Checksum is the base64-encoded SHA-512 digest.
	Checksum string `yaml:"checksum"`
	// Size is the file size in bytes.
	Size int64 `yaml:"size"`
}

// New produces a Description for a fresh build.
func New() *Description {
	return &Description{
		PackagerVersion: version.Short(),
		BuildID:         uuid.NewString(),
		BuiltAt:         time.Now().UTC().Truncate(time.Second),
		Files:           make(map[string]string, defaultMapCapacity),
	}
}

// AddFile records the checksum of the file at path under name.
func (d *Description) AddFile(name, path string) error {
	checksum, err := archive.Checksum(path)
	if err != nil {
		return fmt.Errorf("checksum %s: %w", name, err)
	}

	d.Files[name] = Encode(checksum)

	return nil
}

// SetArchive records the produced archive.
func (d *Description) SetArchive(name string, info *archive.Info) {
	d.Archive = Artifact{
		Name:     name,
		Checksum: Encode(info.Checksum),
		Size:     info.Size,
	}
}

// VerifyArchive checks the archive at path against the recorded checksum.
func (d *Description) VerifyArchive(path string) error {
	if d.Archive.Checksum == "" {
		return fmt.Errorf("%s: %w", d.Archive.Name, errNoChecksum)
	}

	want, err := base64.StdEncoding.DecodeString(d.Archive.Checksum)
	if err != nil {
		return fmt.Errorf("decode archive checksum: %w", err)
	}

	got, err := archive.Checksum(path)
	if err != nil {
		return err
	}

	if !bytes.Equal(want, got) {
		return fmt.Errorf("%s: %w", path, ErrChecksumMismatch)
	}

	return nil
}

// Save writes the description as YAML.
func (d *Description) Save(path string) error {
	contents, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), contents, fileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// Load reads a description written by Save.
func Load(path string) (*Description, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var desc Description
	if err = yaml.Unmarshal(contents, &desc); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	if desc.Files == nil {
		desc.Files = make(map[string]string)
	}

	return &desc, nil
}

// Encode renders a checksum the way manifests store it.
func Encode(checksum []byte) string {
	return base64.StdEncoding.EncodeToString(checksum)
}
