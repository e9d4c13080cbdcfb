// Package installer resolves Python dependencies into a directory using one
// of several interchangeable command-line tools (uv, pip).
//
// Callers pick a tool with Select, which walks a preference list and returns
// the first installer available on PATH.
package installer
