// Package packager assembles the deployable Lambda archive.
//
// A run cleans the previous workspace and archive, resolves the dependency
// set into a fresh workspace with the preferred available installer, copies
// the application files next to the dependencies, zips the workspace into
// the archive at the project root and removes the workspace. Every step is
// fatal on failure; a workspace left behind by a failed run is removed by
// the next run's clean step.
package packager
