package cmd

import "fmt"

// invalidFlagError reports a flag value that failed validation.
type invalidFlagError struct {
	flag  string
	value string
}

func (e *invalidFlagError) Error() string {
	return fmt.Sprintf("invalid value %q for --%s", e.value, e.flag)
}
