package packager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	// errNoDependencies is returned when settings and pyproject yield nothing to install.
	errNoDependencies = errors.New("dependency set is empty")
	// errNotRegular is returned for application files that are not regular files.
	errNotRegular = errors.New("not a regular file")
)

// copyFile copies src to dst, keeping the permission bits.
func copyFile(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", src, errNotRegular)
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}

	return nil
}
