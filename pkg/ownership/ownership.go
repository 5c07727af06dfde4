// Package ownership records which user created a project on the remote host,
// and decides whether the local user may write to it.
//
// Owners are compared by local OS username only. Two people who share a
// username on different machines can't be told apart.
package ownership

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

// FileName is the name of the ownership file within the project directory.
const FileName = ".tether-owner"

// Path returns the remote path of the ownership file for the project at
// `projectPath`.
func Path(projectPath string) string {
	return path.Join(projectPath, FileName)
}

// Info is the content of an ownership file.
type Info struct {
	Owner   string `json:"owner"`
	Created string `json:"created"`
	Machine string `json:"machine"`
}

// Result is the three-valued outcome of reading an ownership file.
type Result struct {
	State remote.FileState
	Info  *Info
	Raw   string
	Err   error
}

type rawInfo struct {
	Owner   *string `json:"owner"`
	Created *string `json:"created"`
	Machine *string `json:"machine"`
}

// Decode classifies the raw content of an ownership file.
func Decode(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{State: remote.Absent}
	}

	var fields rawInfo
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Result{State: remote.Corrupt, Raw: raw, Err: errors.WithContext(err, "unmarshal")}
	}

	var missing string
	switch {
	case fields.Owner == nil || *fields.Owner == "":
		missing = "owner"
	case fields.Created == nil:
		missing = "created"
	case fields.Machine == nil:
		missing = "machine"
	}
	if missing != "" {
		return Result{State: remote.Corrupt, Raw: raw,
			Err: errors.MissingFieldError{Record: "ownership", Field: missing}}
	}

	if _, err := time.Parse(time.RFC3339, *fields.Created); err != nil {
		return Result{State: remote.Corrupt, Raw: raw, Err: errors.WithContext(err, "parse created")}
	}

	return Result{State: remote.Valid, Info: &Info{
		Owner:   *fields.Owner,
		Created: *fields.Created,
		Machine: *fields.Machine,
	}}
}

// NotOwnerError is returned when an operation requires ownership that the
// local user doesn't have.
type NotOwnerError struct {
	ProjectPath string
	Info        Info
}

func (err *NotOwnerError) Error() string {
	return fmt.Sprintf("%s is owned by %s on %s", err.ProjectPath, err.Info.Owner, err.Info.Machine)
}

// FriendlyMessage implements errors.Friendly.
func (err *NotOwnerError) FriendlyMessage() string {
	return fmt.Sprintf("This project is owned by %s (created on %s at %s).\n"+
		"Only the owner can modify it.", err.Info.Owner, err.Info.Machine, err.Info.Created)
}

// Status is the ownership state of a project relative to the local user.
type Status struct {
	HasOwner bool
	IsOwner  bool
	Info     *Info
}

// Store reads and writes ownership files through a remote.Executor.
type Store struct {
	exec  remote.Executor
	clock clockwork.Clock
	log   logrus.FieldLogger
}

// NewStore creates a Store.
func NewStore(exec remote.Executor, clock clockwork.Clock, log logrus.FieldLogger) Store {
	return Store{exec: exec, clock: clock, log: log}
}

// Inspect reads the ownership file without normalizing corrupt content.
func (s Store) Inspect(host, projectPath string) (Result, error) {
	res := s.exec.Exec(host, remote.ReadFileCommand(Path(projectPath)))
	if err := res.Err(host); err != nil {
		return Result{}, errors.WithContext(err, "read ownership")
	}
	return Decode(res.Stdout), nil
}

// Status returns the ownership status of the project at `projectPath`.
// Corrupt ownership files are treated as absent.
func (s Store) Status(host, projectPath string, id identity.Identity) (Status, error) {
	res, err := s.Inspect(host, projectPath)
	if err != nil {
		return Status{}, err
	}

	switch res.State {
	case remote.Valid:
		return Status{HasOwner: true, IsOwner: res.Info.Owner == id.User, Info: res.Info}, nil
	case remote.Corrupt:
		s.log.WithFields(logrus.Fields{
			"host": host,
			"path": projectPath,
			"raw":  res.Raw,
		}).WithError(res.Err).Warn("Ignoring unparseable ownership file")
	}
	return Status{}, nil
}

// Set records `id` as the owner of the project at `projectPath`. A valid
// ownership file is never overwritten: if it names the same user Set is a
// no-op, and otherwise a *NotOwnerError is returned. An empty or unparseable
// file is replaced.
func (s Store) Set(host, projectPath string, id identity.Identity) error {
	info := Info{
		Owner:   id.User,
		Created: s.clock.Now().UTC().Format(time.RFC3339),
		Machine: id.Machine,
	}
	data, err := json.Marshal(info)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	res := s.exec.Exec(host, remote.CreateFileCommand(Path(projectPath), data))
	if err := res.Err(host); err != nil {
		return errors.WithContext(err, "write ownership")
	}

	if strings.TrimSpace(res.Stdout) == remote.CreatedMarker {
		s.log.WithFields(logrus.Fields{
			"host":  host,
			"path":  projectPath,
			"owner": id.User,
		}).Debug("Recorded project ownership")
		return nil
	}

	existing, err := s.Inspect(host, projectPath)
	if err != nil {
		return err
	}

	if existing.State == remote.Valid {
		if existing.Info.Owner != id.User {
			return &NotOwnerError{ProjectPath: projectPath, Info: *existing.Info}
		}
		return nil
	}

	s.log.WithFields(logrus.Fields{
		"host": host,
		"path": projectPath,
		"raw":  existing.Raw,
	}).Warn("Replacing unusable ownership file")
	res = s.exec.Exec(host, remote.WriteFileCommand(Path(projectPath), data))
	return errors.WithContext(res.Err(host), "write ownership")
}
