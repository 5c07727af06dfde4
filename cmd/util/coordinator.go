package util

import (
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/tether/pkg/config"
	"github.com/sidkik/tether/pkg/errors"
	"github.com/sidkik/tether/pkg/identity"
	"github.com/sidkik/tether/pkg/lock"
	"github.com/sidkik/tether/pkg/ownership"
	"github.com/sidkik/tether/pkg/project"
	"github.com/sidkik/tether/pkg/remote"
	"github.com/sidkik/tether/pkg/session"
	"github.com/sidkik/tether/pkg/syncengine"
)

// NewCoordinator builds a project.Coordinator from the user config. The
// local identity is resolved here, once per invocation.
func NewCoordinator(userConfig config.User) (project.Coordinator, error) {
	id, err := identity.Resolve()
	if err != nil {
		return project.Coordinator{}, errors.WithContext(err, "resolve identity")
	}

	staleAfter, err := userConfig.GetLockStaleAfter()
	if err != nil {
		return project.Coordinator{}, err
	}

	logger := log.StandardLogger()
	clock := clockwork.NewRealClock()
	executor := remote.NewSSH(userConfig.SSHOptions)

	locks := lock.NewStore(executor, clock, logger)
	locks.StaleAfter = staleAfter

	var registrar config.Registrar
	return project.Coordinator{
		Locks:     locks,
		Ownership: ownership.NewStore(executor, clock, logger),
		Sessions: session.NewOrchestrator(
			syncengine.NewMutagen(userConfig.MutagenPath), registrar, logger),
		Registry: registrar,
		Identity: id,
		Log:      logger,
	}, nil
}

// Setup parses the user config and builds a Coordinator from it.
func Setup() (config.User, project.Coordinator, error) {
	userConfig, err := config.ParseUser()
	if err != nil {
		return config.User{}, project.Coordinator{}, errors.WithContext(err, "parse user config")
	}

	coordinator, err := NewCoordinator(userConfig)
	if err != nil {
		return config.User{}, project.Coordinator{}, err
	}
	return userConfig, coordinator, nil
}
