package archive

import (
	"archive/zip"
	"context"
	"crypto"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	goupdate "github.com/doitdistributed/go-update"

	// Register SHA-512 for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DefaultChecksumFunction hashes archives and application files.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// DefaultFileMode is the mode of the committed archive.
	DefaultFileMode os.FileMode = 0o644
)

var (
	errHashUnavailable = errors.New("hash function unavailable")
	errNotDirectory    = errors.New("archive source is not a directory")
	errDirSymlink      = errors.New("directory symlinks are not supported")
)

// Info describes a committed archive.
type Info struct {
	// Path is the absolute archive location.
	Path string
	// Files is the number of file entries.
	Files int
	// Size is the archive size in bytes.
	Size int64
	// Checksum is the DefaultChecksumFunction digest of the archive.
	Checksum []byte
}

// Create zips srcDir into dst. Entry names are relative to srcDir, so the
// archive root equals srcDir. An existing dst is replaced only once the new
// archive passed checksum verification.
func Create(ctx context.Context, srcDir, dst string) (*Info, error) {
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return nil, fmt.Errorf("resolve archive path: %w", err)
	}

	stat, err := os.Stat(srcDir)
	if err != nil {
		return nil, fmt.Errorf("stat archive source: %w", err)
	}

	if !stat.IsDir() {
		return nil, fmt.Errorf("%s: %w", srcDir, errNotDirectory)
	}

	files, size, checksum, err := build(ctx, srcDir, absDst)
	if err != nil {
		return nil, err
	}

	return &Info{
		Path:     absDst,
		Files:    files,
		Size:     size,
		Checksum: checksum,
	}, nil
}

// build streams the archive into a temporary file next to dst, hashing it on
// the way, and commits it. The temporary file is always removed.
// goupdate.Apply still holds one copy in memory while verifying.
func build(ctx context.Context, srcDir, dst string) (files int, size int64, checksum []byte, err error) {
	if !DefaultChecksumFunction.Available() {
		return 0, 0, nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, 0, nil, fmt.Errorf("create temporary archive: %w", err)
	}

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	hasher := DefaultChecksumFunction.New()
	counter := &countingWriter{w: io.MultiWriter(tmp, hasher)}

	if files, err = writeZip(ctx, counter, srcDir); err != nil {
		return 0, 0, nil, err
	}

	checksum = hasher.Sum(nil)

	if _, err = tmp.Seek(0, io.SeekStart); err != nil {
		return 0, 0, nil, fmt.Errorf("rewind temporary archive: %w", err)
	}

	if err = commit(dst, tmp, checksum); err != nil {
		return 0, 0, nil, err
	}

	return files, counter.n, checksum, nil
}

// countingWriter counts the bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}

// List returns the file entry names of the archive at path, sorted.
// Directory entries are omitted.
func List(path string) (names []string, err error) {
	reader, err := zip.OpenReader(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	names = make([]string, 0, len(reader.File))

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		names = append(names, file.Name)
	}

	sort.Strings(names)

	return names, nil
}

// Checksum returns the DefaultChecksumFunction digest of the file at path.
func Checksum(path string) ([]byte, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	return sum(file)
}

// writeZip writes every entry under srcDir into w and returns the file count.
func writeZip(ctx context.Context, w io.Writer, srcDir string) (files int, err error) {
	zipWriter := zip.NewWriter(w)
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("finish archive: %w", closeErr)
		}
	}()

	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		relPath, relErr := filepath.Rel(srcDir, path)
		if relErr != nil {
			return fmt.Errorf("relative path of %s: %w", path, relErr)
		}

		if relPath == "." {
			return nil
		}

		info, infoErr := entryInfo(path, d)
		if infoErr != nil {
			return infoErr
		}

		header, headerErr := zip.FileInfoHeader(info)
		if headerErr != nil {
			return fmt.Errorf("header for %s: %w", relPath, headerErr)
		}

		// Zip entries always use forward slashes.
		header.Name = filepath.ToSlash(relPath)

		if info.IsDir() {
			header.Name += "/"
			header.Method = zip.Store

			if _, createErr := zipWriter.CreateHeader(header); createErr != nil {
				return fmt.Errorf("directory entry %s: %w", relPath, createErr)
			}

			return nil
		}

		header.Method = zip.Deflate

		if addErr := addFile(zipWriter, header, path); addErr != nil {
			return addErr
		}

		files++

		return nil
	})
	if walkErr != nil {
		return 0, fmt.Errorf("archive %s: %w", srcDir, walkErr)
	}

	return files, nil
}

// entryInfo returns the file info to archive for d. File symlinks are
// archived as the regular file they point to.
func entryInfo(path string, d fs.DirEntry) (fs.FileInfo, error) {
	if d.Type()&fs.ModeSymlink == 0 {
		info, err := d.Info()
		if err != nil {
			return nil, fmt.Errorf("file info for %s: %w", path, err)
		}

		return info, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("resolve symlink %s: %w", path, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, errDirSymlink)
	}

	return info, nil
}

func addFile(zipWriter *zip.Writer, header *zip.FileHeader, path string) (err error) {
	src, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	dst, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", header.Name, err)
	}

	if _, err = io.Copy(dst, src); err != nil {
		return fmt.Errorf("write entry %s: %w", header.Name, err)
	}

	return nil
}

// commit replaces dst with the contents of data after go-update verified the
// checksum. When dst did not exist before, a failed commit leaves nothing behind.
func commit(dst string, data io.Reader, checksum []byte) error {
	created := false

	// go-update moves the current target aside, so it must exist.
	if _, err := os.Stat(dst); errors.Is(err, os.ErrNotExist) {
		placeholder, createErr := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, DefaultFileMode)
		if createErr != nil {
			return fmt.Errorf("create archive: %w", createErr)
		}

		_ = placeholder.Close()
		created = true
	} else if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}

	options := goupdate.Options{
		TargetPath: dst,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	}

	if err := goupdate.Apply(data, options); err != nil {
		if created {
			_ = os.Remove(dst)
		}

		return fmt.Errorf("commit archive: %w", err)
	}

	// Best-effort cleanup of the copy go-update moved aside.
	oldPath := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".old")
	if _, err := os.Stat(oldPath); err == nil {
		_ = os.Remove(oldPath)
	}

	return nil
}

func sum(r io.Reader) ([]byte, error) {
	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
