// Package version reports which lambda-packager build produced an archive.
//
// Short is written into build manifests so an archive can be traced back to
// the packager release. Full adds the commit and build time, taken from
// ldflags or, for `go install` builds, from the binary's VCS stamp, plus the
// Go toolchain and platform. It backs `lambda-packager version` and --version.
package version
