package config

import (
	"path"
	"regexp"
	"strings"

	"github.com/sidkik/tether/pkg/errors"
)

// Registration records that a project is synced between a local directory
// and a remote host.
type Registration struct {
	Project    string `json:"project"`
	Remote     string `json:"remote"`
	RemotePath string `json:"remotePath"`
	LocalPath  string `json:"localPath"`

	// SubPaths is set when the project is synced selectively.
	SubPaths []string `json:"subPaths,omitempty"`
}

var projectNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateProjectName checks that `name` is safe to use in remote file paths
// and session names.
func ValidateProjectName(name string) error {
	if len(name) > 100 || !projectNameRegex.MatchString(name) {
		return errors.NewFriendlyError("Invalid project name %q.\n"+
			"Project names must start with a letter or digit, and may only "+
			"contain letters, digits, '.', '_' and '-'.", name)
	}
	return nil
}

// CleanSubPath normalizes a selective sync sub-path. Sub-paths must be
// relative and stay inside the project.
func CleanSubPath(subPath string) (string, error) {
	cleaned := path.Clean(strings.TrimSpace(subPath))
	if path.IsAbs(cleaned) || cleaned == "." || cleaned == ".." ||
		strings.HasPrefix(cleaned, "../") {
		return "", errors.NewFriendlyError("Invalid sub-path %q. Sub-paths "+
			"must be relative to the project root and stay within it.", subPath)
	}
	return cleaned, nil
}

// Registrar persists Registrations in the user config.
type Registrar struct{}

// Register adds `reg` to the user config, replacing any existing
// registration for the same project.
func (Registrar) Register(reg Registration) error {
	user, err := ParseUser()
	if err != nil {
		return errors.WithContext(err, "read user config")
	}

	replaced := false
	for i, existing := range user.Projects {
		if existing.Project == reg.Project {
			user.Projects[i] = reg
			replaced = true
			break
		}
	}
	if !replaced {
		user.Projects = append(user.Projects, reg)
	}

	return errors.WithContext(WriteUser(user), "write user config")
}

// Unregister removes the registration for `project`. It returns whether a
// registration was removed.
func (Registrar) Unregister(project string) (bool, error) {
	user, err := ParseUser()
	if err != nil {
		return false, errors.WithContext(err, "read user config")
	}

	var kept []Registration
	for _, existing := range user.Projects {
		if existing.Project != project {
			kept = append(kept, existing)
		}
	}

	if len(kept) == len(user.Projects) {
		return false, nil
	}

	user.Projects = kept
	if err := WriteUser(user); err != nil {
		return false, errors.WithContext(err, "write user config")
	}
	return true, nil
}

// Lookup returns the registration for `project`.
func (Registrar) Lookup(project string) (Registration, bool, error) {
	user, err := ParseUser()
	if err != nil {
		return Registration{}, false, errors.WithContext(err, "read user config")
	}

	for _, reg := range user.Projects {
		if reg.Project == project {
			return reg, true, nil
		}
	}
	return Registration{}, false, nil
}

// List returns every registration.
func (Registrar) List() ([]Registration, error) {
	user, err := ParseUser()
	if err != nil {
		return nil, errors.WithContext(err, "read user config")
	}
	return user.Projects, nil
}
