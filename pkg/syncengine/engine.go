// Package syncengine drives the external bidirectional sync engine. tether
// never moves file contents itself. It only creates engine sessions, waits
// for them to converge, and terminates them.
package syncengine

import "fmt"

//go:generate mockery -name Engine

// Spec describes a sync session to create.
type Spec struct {
	Name      string
	LocalPath string

	// Remote is the engine's remote endpoint, `host:path`.
	Remote string

	Ignores []string
}

// ProgressFunc receives human-readable progress text from the engine.
type ProgressFunc func(string)

// Engine is the contract tether needs from a sync engine.
type Engine interface {
	// Create starts a session. Creating a session whose name is already in
	// use fails.
	Create(spec Spec) error

	// WaitUntilFlushed blocks until the session reports that both sides
	// are consistent. There is no timeout.
	WaitUntilFlushed(name string, onProgress ProgressFunc) error

	// Terminate stops and forgets a session. Terminating a session that
	// doesn't exist returns a *SessionNotFoundError.
	Terminate(name string) error

	// Exists reports whether a session named `name` is known to the engine.
	Exists(name string) (bool, error)
}

// SessionNotFoundError is returned when the engine has no session with the
// given name.
type SessionNotFoundError struct {
	Name string
}

func (err *SessionNotFoundError) Error() string {
	return fmt.Sprintf("sync session %s does not exist", err.Name)
}

// RemoteEndpoint formats a host and remote path as an engine endpoint.
func RemoteEndpoint(host, path string) string {
	return host + ":" + path
}
