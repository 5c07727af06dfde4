package lock

import (
	"sort"

	"github.com/sidkik/tether/pkg/identity"
)

// Class is a project's lock classification. The declaration order is the
// order projects are listed in, so that contention is shown first.
type Class int

const (
	LockedByOther Class = iota
	Unknown
	LockedByMe
	Unlocked
)

func (c Class) String() string {
	switch c {
	case LockedByOther:
		return "locked"
	case Unknown:
		return "unknown"
	case LockedByMe:
		return "locked by me"
	case Unlocked:
		return "unlocked"
	}
	return "invalid"
}

// Target identifies a project on a host.
type Target struct {
	Host    string
	Project string
}

// ProjectStatus is the lock classification of one project.
type ProjectStatus struct {
	Target
	Class Class
	Info  *Info
	Stale bool

	// Err is set when Class is Unknown.
	Err error
}

// GetAllStatuses classifies every target. Targets whose host can't be
// reached are classified Unknown rather than Unlocked.
func (s Store) GetAllStatuses(targets []Target, id identity.Identity) []ProjectStatus {
	var statuses []ProjectStatus
	for _, target := range targets {
		status := ProjectStatus{Target: target}

		st, err := s.GetStatus(target.Host, target.Project, id)
		switch {
		case err != nil:
			status.Class = Unknown
			status.Err = err
		case !st.Locked:
			status.Class = Unlocked
		case st.OwnedByMe:
			status.Class = LockedByMe
		default:
			status.Class = LockedByOther
		}

		if st.Info != nil {
			status.Info = st.Info
			status.Stale = s.Stale(*st.Info)
		}
		statuses = append(statuses, status)
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		if statuses[i].Class != statuses[j].Class {
			return statuses[i].Class < statuses[j].Class
		}
		return statuses[i].Project < statuses[j].Project
	})
	return statuses
}
