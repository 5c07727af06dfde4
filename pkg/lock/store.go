// Package lock implements advisory per-project locks stored as files on the
// remote host.
//
// A lock signals that one machine is working on a project. Locks are
// acquired with the remote shell's exclusive-create primitive, so two
// machines racing to lock the same project can't both succeed. Nothing stops
// a tool that ignores the locks from writing, though, and locks never expire
// on their own. Old locks are reported as stale for a human to clear.
package lock

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/tether/pkg/errors"
	"github.com/sidkik/tether/pkg/identity"
	"github.com/sidkik/tether/pkg/remote"
)

// Dir is the remote directory that holds the lock files.
const Dir = "~/.tether-locks"

// Path returns the remote path of the lock file for `project`.
func Path(project string) string {
	return path.Join(Dir, project+".lock")
}

// IndeterminateError is returned when the lock state couldn't be read, for
// example because the host is unreachable. It must never be treated as
// "unlocked".
type IndeterminateError struct {
	Host    string
	Project string
	Reason  string
}

func (err *IndeterminateError) Error() string {
	return fmt.Sprintf("could not determine lock state of %q on %s: %s",
		err.Project, err.Host, err.Reason)
}

// FriendlyMessage implements errors.Friendly.
func (err *IndeterminateError) FriendlyMessage() string {
	return fmt.Sprintf("Cannot determine whether %q is locked on %s:\n%s\n\n"+
		"Refusing to continue until the lock state is known.",
		err.Project, err.Host, err.Reason)
}

// HeldError is returned when another machine holds the lock.
type HeldError struct {
	Host    string
	Project string
	Info    Info
	Stale   bool
}

func (err *HeldError) Error() string {
	return fmt.Sprintf("%q on %s is locked by %s on %s", err.Project, err.Host,
		err.Info.User, err.Info.Machine)
}

// FriendlyMessage implements errors.Friendly.
func (err *HeldError) FriendlyMessage() string {
	msg := fmt.Sprintf("Project %q on %s is locked by %s on %s (since %s, pid %d).",
		err.Project, err.Host, err.Info.User, err.Info.Machine,
		err.Info.Timestamp, err.Info.PID)
	if err.Stale {
		msg += "\nThe lock is old and is probably stale."
	}
	return msg + fmt.Sprintf("\nIf %s is no longer working on it, run "+
		"`tether lock clear %s`.", err.Info.Machine, err.Project)
}

// Store reads and writes lock files through a remote.Executor.
type Store struct {
	exec  remote.Executor
	clock clockwork.Clock
	log   logrus.FieldLogger

	// StaleAfter is the staleness threshold reported in HeldErrors and
	// statuses.
	StaleAfter time.Duration
}

// NewStore creates a Store.
func NewStore(exec remote.Executor, clock clockwork.Clock, log logrus.FieldLogger) Store {
	return Store{
		exec:       exec,
		clock:      clock,
		log:        log,
		StaleAfter: DefaultStaleAfter,
	}
}

// NewInfo returns the lock content for `id` at the current time.
func (s Store) NewInfo(id identity.Identity) Info {
	return Info{
		Machine:   id.Machine,
		User:      id.User,
		Timestamp: s.clock.Now().UTC().Format(time.RFC3339),
		PID:       id.PID,
	}
}

// Stale returns whether `info` is older than the store's staleness
// threshold.
func (s Store) Stale(info Info) bool {
	return IsStale(info, s.clock.Now(), s.StaleAfter)
}

// Inspect reads the lock file for `project` without normalizing corrupt
// content.
func (s Store) Inspect(host, project string) (Result, error) {
	res := s.exec.Exec(host, remote.ReadFileCommand(Path(project)))
	if !res.Success {
		return Result{}, &IndeterminateError{Host: host, Project: project, Reason: res.Error}
	}
	return Decode(res.Stdout), nil
}

// Read returns the lock for `project`, or nil if there is none. Corrupt lock
// files are treated as absent so that a bad write can't block a project
// forever. An error is only returned if the host couldn't be queried.
func (s Store) Read(host, project string) (*Info, error) {
	res, err := s.Inspect(host, project)
	if err != nil {
		return nil, err
	}

	if res.State == remote.Corrupt {
		s.log.WithFields(logrus.Fields{
			"host":    host,
			"project": project,
			"raw":     res.Raw,
		}).WithError(res.Err).Warn("Ignoring unparseable lock file")
	}
	return res.Info, nil
}

// Write overwrites the lock file for `project`.
func (s Store) Write(host, project string, info Info) error {
	data, err := json.Marshal(info)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	res := s.exec.Exec(host, remote.WriteFileCommand(Path(project), data))
	return errors.WithContext(res.Err(host), "write lock")
}

// Remove deletes the lock file for `project`. Removing a lock that doesn't
// exist succeeds.
func (s Store) Remove(host, project string) error {
	res := s.exec.Exec(host, remote.RemoveFileCommand(Path(project)))
	return errors.WithContext(res.Err(host), "remove lock")
}

// Acquire takes the lock for `project` on behalf of `id`. Acquiring a lock
// that `id` already holds succeeds and returns the existing lock. If another
// machine holds it, a *HeldError is returned.
func (s Store) Acquire(host, project string, id identity.Identity) (Info, error) {
	info := s.NewInfo(id)
	data, err := json.Marshal(info)
	if err != nil {
		return Info{}, errors.WithContext(err, "marshal")
	}

	log := s.log.WithFields(logrus.Fields{"host": host, "project": project})
	res := s.exec.Exec(host, remote.CreateFileCommand(Path(project), data))
	if !res.Success {
		return Info{}, &IndeterminateError{Host: host, Project: project, Reason: res.Error}
	}

	switch strings.TrimSpace(res.Stdout) {
	case remote.CreatedMarker:
		log.Debug("Acquired lock")
		return info, nil
	case remote.ExistsMarker:
	default:
		return Info{}, &IndeterminateError{Host: host, Project: project,
			Reason: fmt.Sprintf("unexpected output %q", res.Stdout)}
	}

	existing, err := s.Inspect(host, project)
	if err != nil {
		return Info{}, err
	}

	if existing.State == remote.Valid {
		if existing.Info.HeldBy(id) {
			log.Debug("Lock already held by this machine")
			return *existing.Info, nil
		}
		return Info{}, &HeldError{
			Host:    host,
			Project: project,
			Info:    *existing.Info,
			Stale:   s.Stale(*existing.Info),
		}
	}

	// The file exists but doesn't hold a usable lock. Take it over rather
	// than leaving the project blocked.
	log.WithField("raw", existing.Raw).Warn("Replacing unusable lock file")
	if err := s.Write(host, project, info); err != nil {
		return Info{}, err
	}
	return info, nil
}

// Release removes the lock for `project`. Unless `force` is set, it refuses
// to remove a lock held by another machine.
func (s Store) Release(host, project string, id identity.Identity, force bool) error {
	if !force {
		current, err := s.Read(host, project)
		if err != nil {
			return err
		}

		if current != nil && !current.HeldBy(id) {
			return &HeldError{
				Host:    host,
				Project: project,
				Info:    *current,
				Stale:   s.Stale(*current),
			}
		}
	}
	return s.Remove(host, project)
}

// Status is the lock state of a project relative to the local identity.
type Status struct {
	Locked    bool
	OwnedByMe bool
	Info      *Info
}

// GetStatus returns the lock status of `project` relative to `id`.
func (s Store) GetStatus(host, project string, id identity.Identity) (Status, error) {
	info, err := s.Read(host, project)
	if err != nil {
		return Status{}, err
	}

	if info == nil {
		return Status{}, nil
	}
	return Status{Locked: true, OwnedByMe: info.HeldBy(id), Info: info}, nil
}
