package config

import (
	"path/filepath"
	"time"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/tether/pkg/errors"
)

const (
	// UserConfigPath is the default path to the tether user config.
	UserConfigPath = "~/.tether.yaml"

	// InitialUserConfigVersion is the first version of the tether
	// user config. Config files that do not specify a version
	// will default to this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the
	// tether user config of the current tether binary.
	SupportedUserConfigVersion = "v1alpha1"

	// DefaultRemoteRoot is the remote directory that projects are synced
	// into when no remote path is given.
	DefaultRemoteRoot = "~/tether"

	// DefaultLockStaleAfter is how old a lock must be before it's reported
	// as stale.
	DefaultLockStaleAfter = "24h"
)

// User contains the user's settings and the projects that are currently
// synced.
type User struct {
	Version string `json:"version,omitempty"`

	// RemoteRoot is the remote directory that holds the projects.
	RemoteRoot string `json:"remoteRoot,omitempty"`

	// LockStaleAfter is a duration string such as "24h". "0" disables
	// staleness reporting.
	LockStaleAfter string `json:"lockStaleAfter,omitempty"`

	// Ignores are passed to every sync session.
	Ignores []string `json:"ignores,omitempty"`

	MutagenPath string   `json:"mutagenPath,omitempty"`
	SSHOptions  []string `json:"sshOptions,omitempty"`

	Projects []Registration `json:"projects,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// GetLockStaleAfter parses LockStaleAfter.
func (u User) GetLockStaleAfter() (time.Duration, error) {
	staleAfter := u.LockStaleAfter
	if staleAfter == "" {
		staleAfter = DefaultLockStaleAfter
	}

	d, err := time.ParseDuration(staleAfter)
	if err != nil {
		return 0, errors.NewFriendlyError("Invalid lockStaleAfter %q in the "+
			"tether user config: %s", u.LockStaleAfter, err)
	}
	return d, nil
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseUser attempts to parse the User stored in the default path. A missing
// config file isn't an error, since tether works without one.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(userConfigKind, path, &config, SupportedUserConfigVersion); err != nil {
		if isFileNotFound(err) {
			return defaultUser(), nil
		}
		return User{}, errors.WithContext(err, "parse")
	}

	if config.RemoteRoot == "" {
		config.RemoteRoot = DefaultRemoteRoot
	}

	for i, proj := range config.Projects {
		localPath, err := homedirExpand(proj.LocalPath)
		if err != nil {
			return User{}, errors.WithContext(err, "expand local path")
		}

		// Evaluate relative paths relative to the config path.
		if localPath != "" && !filepath.IsAbs(localPath) {
			localPath = filepath.Join(filepath.Dir(path), localPath)
		}
		config.Projects[i].LocalPath = localPath
	}
	return config, nil
}

func defaultUser() User {
	return User{
		Version:    SupportedUserConfigVersion,
		RemoteRoot: DefaultRemoteRoot,
	}
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetUserConfigPath returns the path to the user's tether configuration. This
// path is expanded, so it can be directly passed to file operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
