package manifest

import (
	"fmt"
	"os"
	"os/user"
)

// Actor identifies the host and user that ran a build.
type Actor struct {
	// Hostname is the machine name.
	Hostname string `yaml:"hostname"`
	// Username is the login of the current user.
	Username string `yaml:"username"`
}

// DetectActor gathers host and user information for the manifest.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
