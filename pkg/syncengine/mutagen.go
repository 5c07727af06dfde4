package syncengine

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/tether/pkg/errors"
)

// MinMutagenVersion is the oldest mutagen release with the `sync flush`
// command.
const MinMutagenVersion = "0.12.0"

// sessionNotFoundOutput is what mutagen prints when a session selection
// matches nothing.
const sessionNotFoundOutput = "unable to locate requested sessions"

// Mocked out for unit testing.
var execCommand = exec.Command

// Mutagen implements Engine by running the mutagen CLI.
type Mutagen struct {
	// Binary is the mutagen executable. Defaults to "mutagen".
	Binary string
}

// NewMutagen returns a Mutagen engine using `binary`, or "mutagen" if it's
// empty.
func NewMutagen(binary string) Mutagen {
	if binary == "" {
		binary = "mutagen"
	}
	return Mutagen{Binary: binary}
}

// CreateArgs returns the mutagen arguments that create `spec`.
func CreateArgs(spec Spec) []string {
	args := []string{"sync", "create", "--name", spec.Name}
	for _, ignore := range spec.Ignores {
		args = append(args, "--ignore", ignore)
	}
	return append(args, spec.LocalPath, spec.Remote)
}

// Create implements Engine.
func (m Mutagen) Create(spec Spec) error {
	log.WithField("session", spec.Name).Debug("Creating sync session")
	return m.run("create session", CreateArgs(spec)...)
}

// Terminate implements Engine.
func (m Mutagen) Terminate(name string) error {
	log.WithField("session", name).Debug("Terminating sync session")
	err := m.run("terminate session", "sync", "terminate", name)
	if err != nil && isSessionNotFound(err) {
		return &SessionNotFoundError{Name: name}
	}
	return err
}

// Exists implements Engine.
func (m Mutagen) Exists(name string) (bool, error) {
	err := m.run("list session", "sync", "list", name)
	switch {
	case err == nil:
		return true, nil
	case isSessionNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

func isSessionNotFound(err error) bool {
	return strings.Contains(err.Error(), sessionNotFoundOutput)
}

// WaitUntilFlushed implements Engine. Each line mutagen prints while
// flushing is forwarded to `onProgress`.
func (m Mutagen) WaitUntilFlushed(name string, onProgress ProgressFunc) error {
	cmd := execCommand(m.Binary, "sync", "flush", name)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.WithContext(err, "get stdout")
	}

	if err := cmd.Start(); err != nil {
		return errors.WithContext(err, "start flush")
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Split(scanProgressLines)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && onProgress != nil {
			onProgress(line)
		}
	}

	// Keep reading after a scan error so mutagen never blocks on a full
	// pipe.
	scanErr := scanner.Err()
	if scanErr != nil {
		io.Copy(io.Discard, stdout) // nolint: errcheck
	}

	if err := cmd.Wait(); err != nil {
		return commandError("flush session", err, stderr.String())
	}
	return errors.WithContext(scanErr, "read flush progress")
}

// CheckVersion returns an error if the installed mutagen is too old.
func (m Mutagen) CheckVersion() (*goversion.Version, error) {
	out, err := execCommand(m.Binary, "version").Output()
	if err != nil {
		return nil, errors.NewFriendlyError("Failed to run %q. Is mutagen installed?\n%s",
			m.Binary, err)
	}

	installed, err := goversion.NewVersion(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, errors.WithContext(err, "parse mutagen version")
	}

	constraint, err := goversion.NewConstraint(">= " + MinMutagenVersion)
	if err != nil {
		return nil, errors.WithContext(err, "parse constraint")
	}

	if !constraint.Check(installed) {
		return installed, errors.NewFriendlyError(
			"mutagen %s is too old. Please upgrade to %s or newer.",
			installed, MinMutagenVersion)
	}
	return installed, nil
}

func (m Mutagen) run(action string, args ...string) error {
	out, err := execCommand(m.Binary, args...).CombinedOutput()
	if err != nil {
		return commandError(action, err, string(out))
	}
	return nil
}

func commandError(action string, err error, output string) error {
	if output = strings.TrimSpace(output); output != "" {
		return errors.WithContext(errors.New(output), action)
	}
	return errors.WithContext(err, action)
}

// scanProgressLines is a bufio.SplitFunc that splits on both `\n` and `\r`,
// since mutagen redraws its progress line with carriage returns.
func scanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// String implements fmt.Stringer.
func (m Mutagen) String() string {
	return fmt.Sprintf("mutagen (%s)", m.Binary)
}
