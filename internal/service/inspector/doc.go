// Package inspector lists the contents of a built archive and checks it is
// deployable: the entry-point module and every application file must be at
// the archive root, and, when a build manifest is present, the archive must
// still match the checksum recorded at build time.
package inspector
