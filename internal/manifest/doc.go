// Package manifest describes a finished build: which tool resolved the
// dependencies, who built it, and SHA-512 checksums of the archive and of
// every application file, so a deployed archive can be traced and verified.
package manifest
