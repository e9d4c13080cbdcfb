package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// shortCommitLength is how many characters of a VCS revision are shown.
const shortCommitLength = 7

var (
	// Version is the release of lambda-packager, set with -ldflags "-X".
	Version = "0.1.0"
	// Commit is the git revision. When not injected it is read from the
	// VCS stamp of the binary.
	Commit = ""
	// BuildTime is the UTC build timestamp. When not injected it is the
	// commit time from the VCS stamp.
	BuildTime = ""
)

// Short returns the release, recorded in build manifests.
func Short() string {
	return Version
}

// Full returns the release with commit, build time and the Go toolchain and
// platform the packager was built for.
func Full() string {
	commit, builtAt := stamp(Commit, BuildTime, readSettings())

	return fmt.Sprintf("%s (commit: %s, built at: %s, %s %s/%s)",
		Version, commit, builtAt, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// stamp fills missing commit and build time from VCS build settings.
func stamp(commit, builtAt string, settings map[string]string) (string, string) {
	if commit == "" {
		commit = settings["vcs.revision"]
		if len(commit) > shortCommitLength {
			commit = commit[:shortCommitLength]
		}

		if commit != "" && settings["vcs.modified"] == "true" {
			commit += "-dirty"
		}
	}

	if builtAt == "" {
		builtAt = settings["vcs.time"]
	}

	if commit == "" {
		commit = "none"
	}

	if builtAt == "" {
		builtAt = "unknown"
	}

	return commit, builtAt
}

func readSettings() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	return settings
}
