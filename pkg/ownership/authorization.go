package ownership

import (
	"fmt"

	"github.com/sidkik/tether/pkg/identity"
)

// Authorization is the outcome of a write-authorization check.
type Authorization struct {
	Authorized bool

	// Error explains a denial.
	Error string

	// OwnerInfo is set whenever an ownership file was found.
	OwnerInfo *Info
}

// Err converts a denial into an error.
func (a Authorization) Err(projectPath string) error {
	if a.Authorized {
		return nil
	}
	if a.OwnerInfo != nil {
		return &NotOwnerError{ProjectPath: projectPath, Info: *a.OwnerInfo}
	}
	return &UnauthorizedError{ProjectPath: projectPath, Reason: a.Error}
}

// UnauthorizedError is a denial that didn't come from a known owner, e.g.
// because ownership couldn't be determined.
type UnauthorizedError struct {
	ProjectPath string
	Reason      string
}

func (err *UnauthorizedError) Error() string {
	return fmt.Sprintf("not authorized to write %s: %s", err.ProjectPath, err.Reason)
}

// FriendlyMessage implements errors.Friendly.
func (err *UnauthorizedError) FriendlyMessage() string {
	return fmt.Sprintf("Refusing to write to %s.\n%s", err.ProjectPath, err.Reason)
}

// CheckWriteAuthorization decides whether `id` may write to the project at
// `projectPath`. Projects without an ownership file are writable by anyone,
// which keeps projects created before ownership tracking working. If the
// ownership file can't be read at all, the write is denied.
func (s Store) CheckWriteAuthorization(host, projectPath string, id identity.Identity) Authorization {
	status, err := s.Status(host, projectPath, id)
	if err != nil {
		return Authorization{
			Error: fmt.Sprintf("Could not determine ownership: %s", err),
		}
	}

	if !status.HasOwner {
		return Authorization{Authorized: true}
	}

	if status.IsOwner {
		return Authorization{Authorized: true, OwnerInfo: status.Info}
	}

	return Authorization{
		Error: fmt.Sprintf("Project is owned by %s on %s. Only the owner can push changes.",
			status.Info.Owner, status.Info.Machine),
		OwnerInfo: status.Info,
	}
}
