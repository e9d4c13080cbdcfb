// Package logger wraps zap for the packager binaries:
//   - a global sugared logger with a console encoder,
//   - informational output on stdout and errors on stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and configuration.
//
// Services accept a context and extract the logger from it, so every log
// line carries the scope it was produced in.
package logger
