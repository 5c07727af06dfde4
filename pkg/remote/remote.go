// Package remote runs shell commands on a named remote host. All of tether's
// coordination state lives in files on the remote host, and this package is
// the only way the rest of the code reaches them.
package remote

import "fmt"

//go:generate mockery -name Executor

// Result is the outcome of running one remote command. Success is false when
// the host was unreachable or the command exited non-zero; Error then holds
// whatever diagnostic text was available.
type Result struct {
	Success bool
	Stdout  string
	Error   string
}

// Executor executes a shell command on a remote host.
type Executor interface {
	Exec(host, command string) Result
}

// FileState classifies what was found when reading a remote metadata file.
type FileState int

const (
	// Absent means the file doesn't exist (or is empty).
	Absent FileState = iota

	// Corrupt means the file exists but couldn't be decoded or validated.
	Corrupt

	// Valid means the file was decoded and passed validation.
	Valid
)

func (s FileState) String() string {
	switch s {
	case Absent:
		return "absent"
	case Corrupt:
		return "corrupt"
	case Valid:
		return "valid"
	}
	return "unknown"
}

// CommandError is returned when a remote command fails.
type CommandError struct {
	Host    string
	Message string
}

func (err CommandError) Error() string {
	return fmt.Sprintf("remote command on %s failed: %s", err.Host, err.Message)
}

// Err returns a CommandError if the command failed, and nil otherwise.
func (r Result) Err(host string) error {
	if r.Success {
		return nil
	}
	return CommandError{Host: host, Message: r.Error}
}
