// Package archive writes the deployable zip.
//
// Create walks a directory, builds the archive in memory and commits it to
// its destination with go-update, so the destination only ever holds a
// complete, checksum-verified archive.
package archive
