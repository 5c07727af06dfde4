// Package config parses and writes tether's YAML configuration files: the
// user config, which also records the synced projects, and the optional
// per-project config in a project's local directory.
package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/sidkik/tether/pkg/errors"
)

// fs is used for mock tests. It will be overridden by afero.NewMemMapFs()
// in the tests.
var fs = afero.NewOsFs()

// The kinds of config file, as named in error messages.
const (
	userConfigKind    = "user config"
	projectConfigKind = "project config"
)

// parseConfigErrTemplate is used when a config file isn't valid YAML or
// doesn't match its schema. The yaml library's errors carry no position, so
// the parser's message is passed on as-is.
const parseConfigErrTemplate = "The tether %s %q could not be parsed.\n" +
	"Check it for:\n" +
	" - fields with the wrong type, such as a string where a list belongs\n" +
	" - fields tether doesn't know about\n\n" +
	"The parser reported:\n" +
	"%s"

type configInterface interface {
	getVersion() string
}

type incompatibleVersionError struct {
	kind, path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The tether %s %q has version %q, but this version "+
		"of tether reads version %q.", err.kind, err.path, err.actual, err.exp)
}

// parseConfig reads the config file of the given kind at `path` into
// `config`. The version is checked before the strict decode, so a file from
// another tether release reports its version rather than its unknown fields.
// A missing file is reported as errors.FileNotFound.
func parseConfig(kind, path string, config configInterface, expVersion string) error {
	configBytes, err := afero.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return errors.FileNotFound{Path: path}
	}
	if err != nil {
		return errors.WithContext(err, "read "+kind)
	}

	if err := yaml.Unmarshal(configBytes, config); err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, kind, path, err)
	}

	if config.getVersion() != expVersion {
		return incompatibleVersionError{kind, path, expVersion, config.getVersion()}
	}

	err = yaml.UnmarshalStrict(configBytes, config, yaml.DisallowUnknownFields)
	if err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, kind, path, err)
	}
	return nil
}

func isFileNotFound(err error) bool {
	_, ok := err.(errors.FileNotFound)
	return ok
}
