// Package identity describes who is running tether and where. It's resolved
// once at process start and passed explicitly to everything that records or
// compares identities.
package identity

import (
	"os"
	"os/user"

	"github.com/sidkik/tether/pkg/errors"
)

// Identity is the local OS account, machine, and process.
type Identity struct {
	User    string
	Machine string
	PID     int
}

// Mocked out for unit testing.
var (
	currentUser = user.Current
	hostname    = os.Hostname
	getpid      = os.Getpid
)

// Resolve looks up the identity of the current process.
func Resolve() (Identity, error) {
	u, err := currentUser()
	if err != nil {
		return Identity{}, errors.WithContext(err, "get current user")
	}

	machine, err := hostname()
	if err != nil {
		return Identity{}, errors.WithContext(err, "get hostname")
	}

	return Identity{
		User:    u.Username,
		Machine: machine,
		PID:     getpid(),
	}, nil
}

// SameMachineUser returns whether the two identities are the same user on
// the same machine. The PID is ignored so that a later invocation from the
// same machine is recognized.
func (id Identity) SameMachineUser(other Identity) bool {
	return id.User == other.User && id.Machine == other.Machine
}
