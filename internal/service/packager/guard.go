package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/mitchellh/go-ps"

	"github.com/arm-dev024/api-samnilabs/internal/logger"
)

// linuxCommLimit is the length Linux truncates process names to in /proc/<pid>/stat.
const linuxCommLimit = 15

// errAlreadyRunning indicates another packager process owns the workspace.
var errAlreadyRunning = errors.New("another packaging run is in progress")

// checkNoConcurrentRun fails when a process other than this one runs an
// executable called name inside root. Listing failures are logged and ignored.
//
// The working directory of other processes is only known on Linux; elsewhere
// every same-named process counts. Any same-named process in root counts,
// including `inspect` runs.
func checkNoConcurrentRun(ctx context.Context, name, root string) error {
	processes, err := ps.Processes()
	if err != nil {
		logger.WarnKV(ctx, "Unable to list processes, skipping concurrent run check", "error", err)
		return nil
	}

	self := os.Getpid()
	root = canonicalDir(root)
	limit := 0

	if runtime.GOOS == "linux" {
		limit = linuxCommLimit
	}

	for _, process := range processes {
		if process.Pid() == self || !sameExecutable(process.Executable(), name, limit) {
			continue
		}

		if cwd, ok := processDir(process.Pid()); ok && cwd != root {
			logger.DebugKV(ctx, "Ignoring packager running elsewhere", "pid", process.Pid(), "dir", cwd)
			continue
		}

		return fmt.Errorf("%w (pid %d)", errAlreadyRunning, process.Pid())
	}

	return nil
}

// sameExecutable compares a listed process name with name, accounting for
// listings that keep only the first limit bytes. A zero limit compares exactly.
func sameExecutable(listed, name string, limit int) bool {
	if limit > 0 && len(name) > limit {
		name = name[:limit]
	}

	return listed == name
}

// processDir returns the working directory of pid when the platform exposes it.
func processDir(pid int) (string, bool) {
	dir, err := os.Readlink(filepath.Join("/proc", strconv.Itoa(pid), "cwd"))
	if err != nil {
		return "", false
	}

	return canonicalDir(dir), true
}

func canonicalDir(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved
	}

	return filepath.Clean(dir)
}
