// Package config defines the packaging settings and helpers to load,
// validate and save them.
//
// Settings come from built-in defaults, an optional YAML file and
// LAMBDA_PACKAGER_* environment variables, in increasing priority.
package config
