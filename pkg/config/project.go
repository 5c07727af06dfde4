package config

import (
	"path/filepath"

	"github.com/sidkik/tether/pkg/errors"
)

// ProjectConfigName is the name of the optional config file in a project's
// local directory.
const ProjectConfigName = "tether.yaml"

// InitialProjectConfigVersion is the first version of the tether
// project config. Config files that do not specify a version
// will default to this version.
const InitialProjectConfigVersion = "v1alpha1"

// SupportedProjectConfigVersion is the supported version of the
// tether project config of the current tether binary.
const SupportedProjectConfigVersion = "v1alpha1"

// ProjectConfig contains per-project sync settings. It lives in the project's
// local directory so that it's synced along with the code.
type ProjectConfig struct {
	Version string `json:"version,omitempty"`

	// Ignores are added to the user's global ignores.
	Ignores []string `json:"ignores,omitempty"`

	// SubPaths are used for selective sync when none are given on the
	// command line.
	SubPaths []string `json:"subPaths,omitempty"`

	// Only populated and consumed by tether. Never set by user.
	path string
}

// GetPath returns the filepath that the config was parsed from. A getter
// method is used rather than making the field public so that it can't get set
// by the yaml Unmarshalling.
func (c ProjectConfig) GetPath() string {
	return c.path
}

func (c ProjectConfig) getVersion() string {
	return c.Version
}

// ParseProjectConfig parses the project config in the directory `dir`. A
// missing file yields an empty config.
func ParseProjectConfig(dir string) (ProjectConfig, error) {
	configPath := filepath.Join(dir, ProjectConfigName)
	config := ProjectConfig{
		path:    configPath,
		Version: InitialProjectConfigVersion,
	}
	if err := parseConfig(projectConfigKind, configPath, &config, SupportedProjectConfigVersion); err != nil {
		if isFileNotFound(err) {
			return ProjectConfig{Version: SupportedProjectConfigVersion}, nil
		}
		return ProjectConfig{}, errors.WithContext(err, "parse")
	}

	var cleanedSubPaths []string
	for _, subPath := range config.SubPaths {
		cleaned, err := CleanSubPath(subPath)
		if err != nil {
			return ProjectConfig{}, err
		}
		cleanedSubPaths = append(cleanedSubPaths, cleaned)
	}
	config.SubPaths = cleanedSubPaths

	return config, nil
}
