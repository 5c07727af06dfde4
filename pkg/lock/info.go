package lock

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sidkik/tether/pkg/errors"
	"github.com/sidkik/tether/pkg/identity"
	"github.com/sidkik/tether/pkg/remote"
)

// DefaultStaleAfter is how old a lock must be before it's reported as
// probably stale.
const DefaultStaleAfter = 24 * time.Hour

// Info is the content of a lock file.
type Info struct {
	Machine   string `json:"machine"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
	PID       int    `json:"pid"`
}

// HeldBy returns whether the lock was taken by the given user on the given
// machine.
func (info Info) HeldBy(id identity.Identity) bool {
	return info.User == id.User && info.Machine == id.Machine
}

// AcquiredAt parses the lock's timestamp.
func (info Info) AcquiredAt() (time.Time, error) {
	return time.Parse(time.RFC3339, info.Timestamp)
}

// IsStale returns whether the lock is older than `threshold` at `now`. A
// non-positive threshold disables staleness, and so does an unparseable
// timestamp.
func IsStale(info Info, now time.Time, threshold time.Duration) bool {
	if threshold <= 0 {
		return false
	}

	acquiredAt, err := info.AcquiredAt()
	if err != nil {
		return false
	}
	return now.Sub(acquiredAt) > threshold
}

// Result is the three-valued outcome of reading a lock file.
type Result struct {
	State remote.FileState

	// Info is set when State is Valid.
	Info *Info

	// Raw and Err are set when State is Corrupt.
	Raw string
	Err error
}

// rawInfo mirrors Info with pointer fields so that missing fields can be told
// apart from zero values.
type rawInfo struct {
	Machine   *string `json:"machine"`
	User      *string `json:"user"`
	Timestamp *string `json:"timestamp"`
	PID       *int    `json:"pid"`
}

// Decode classifies the raw content of a lock file.
func Decode(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{State: remote.Absent}
	}

	info, err := parse([]byte(raw))
	if err != nil {
		return Result{State: remote.Corrupt, Raw: raw, Err: err}
	}
	return Result{State: remote.Valid, Info: &info}
}

func parse(data []byte) (Info, error) {
	var fields rawInfo
	if err := json.Unmarshal(data, &fields); err != nil {
		return Info{}, errors.WithContext(err, "unmarshal")
	}

	switch {
	case fields.Machine == nil || *fields.Machine == "":
		return Info{}, errors.MissingFieldError{Record: "lock", Field: "machine"}
	case fields.User == nil || *fields.User == "":
		return Info{}, errors.MissingFieldError{Record: "lock", Field: "user"}
	case fields.Timestamp == nil:
		return Info{}, errors.MissingFieldError{Record: "lock", Field: "timestamp"}
	case fields.PID == nil:
		return Info{}, errors.MissingFieldError{Record: "lock", Field: "pid"}
	}

	info := Info{
		Machine:   *fields.Machine,
		User:      *fields.User,
		Timestamp: *fields.Timestamp,
		PID:       *fields.PID,
	}
	if _, err := info.AcquiredAt(); err != nil {
		return Info{}, errors.WithContext(err, "parse timestamp")
	}
	return info, nil
}
