// Package project implements tether's user-facing operations on a project:
// starting a sync with clone or push, stopping it, and inspecting or clearing
// its lock.
package project

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sidkik/tether/pkg/config"
	"github.com/sidkik/tether/pkg/errors"
	"github.com/sidkik/tether/pkg/identity"
	"github.com/sidkik/tether/pkg/lock"
	"github.com/sidkik/tether/pkg/ownership"
	"github.com/sidkik/tether/pkg/session"
	"github.com/sidkik/tether/pkg/syncengine"
)

// Registry looks up and removes synced projects.
type Registry interface {
	Lookup(project string) (config.Registration, bool, error)
	Unregister(project string) (bool, error)
	List() ([]config.Registration, error)
}

// Coordinator runs project operations on behalf of a single identity.
type Coordinator struct {
	Locks     lock.Store
	Ownership ownership.Store
	Sessions  session.Orchestrator
	Registry  Registry
	Identity  identity.Identity
	Log       logrus.FieldLogger
}

// Options describes a clone or push.
type Options struct {
	Host       string
	Project    string
	RemotePath string
	LocalPath  string
	SubPaths   []string
	Ignores    []string
	OnProgress syncengine.ProgressFunc
}

func (opts Options) sessionOptions() session.Options {
	return session.Options{
		Project:    opts.Project,
		Host:       opts.Host,
		RemotePath: opts.RemotePath,
		LocalPath:  opts.LocalPath,
		SubPaths:   opts.SubPaths,
		Ignores:    append(append([]string{}, opts.Ignores...), ownership.FileName),
		OnProgress: opts.OnProgress,
	}
}

// NotSyncedError is returned for operations on a project that isn't in the
// user config.
type NotSyncedError struct {
	Project string
}

func (err NotSyncedError) Error() string {
	return "project " + err.Project + " is not synced"
}

// FriendlyMessage implements errors.Friendly.
func (err NotSyncedError) FriendlyMessage() string {
	return "Project \"" + err.Project + "\" is not synced by this machine.\n" +
		"Run `tether projects` to list the synced projects. If its first " +
		"sync failed, pass `--remote` to stop it."
}

// Mocked out for unit testing.
var (
	mkdirAll = os.MkdirAll
	statDir  = os.Stat
)

// Clone starts syncing a remote project into a local directory, creating
// the directory if needed.
func (c Coordinator) Clone(opts Options) (session.Result, error) {
	if err := config.ValidateProjectName(opts.Project); err != nil {
		return session.Result{}, err
	}

	if err := mkdirAll(opts.LocalPath, 0755); err != nil {
		return session.Result{}, errors.WithContext(err, "create local directory")
	}
	return c.sync(opts)
}

// Push starts syncing a local directory to the remote host. Only the
// project's owner may push to a project that has one.
func (c Coordinator) Push(opts Options) (session.Result, error) {
	if err := config.ValidateProjectName(opts.Project); err != nil {
		return session.Result{}, err
	}

	info, err := statDir(opts.LocalPath)
	if err != nil || !info.IsDir() {
		return session.Result{}, errors.NewFriendlyError(
			"Local directory %q doesn't exist. Did you mean `tether clone`?",
			opts.LocalPath)
	}

	auth := c.Ownership.CheckWriteAuthorization(opts.Host, opts.RemotePath, c.Identity)
	if !auth.Authorized {
		return session.Result{}, auth.Err(opts.RemotePath)
	}
	return c.sync(opts)
}

func (c Coordinator) sync(opts Options) (session.Result, error) {
	log := c.Log.WithFields(logrus.Fields{
		"host":    opts.Host,
		"project": opts.Project,
	})

	status, err := c.Locks.GetStatus(opts.Host, opts.Project, c.Identity)
	if err != nil {
		return session.Result{}, err
	}

	if status.Locked && !status.OwnedByMe {
		return session.Result{}, &lock.HeldError{
			Host:    opts.Host,
			Project: opts.Project,
			Info:    *status.Info,
			Stale:   c.Locks.Stale(*status.Info),
		}
	}

	if _, err := c.Locks.Acquire(opts.Host, opts.Project, c.Identity); err != nil {
		return session.Result{}, err
	}
	acquired := !status.OwnedByMe

	sessionOpts := opts.sessionOptions()
	sessionOpts.Resume = status.OwnedByMe
	res := c.Sessions.FinalizeProjectSync(sessionOpts)
	if !res.Success {
		// Nothing is syncing after a failed create, so the lock can go.
		// Later stages leave sessions running, which keep the lock.
		if res.Stage == session.StageCreate && acquired {
			if err := c.Locks.Release(opts.Host, opts.Project, c.Identity, false); err != nil {
				log.WithError(err).Warn("Failed to release lock")
			}
		}
		return res, res.Err()
	}

	if err := c.Ownership.Set(opts.Host, opts.RemotePath, c.Identity); err != nil {
		if _, ok := err.(*ownership.NotOwnerError); ok {
			log.WithError(err).Debug("Project is owned by someone else")
		} else {
			log.WithError(err).Warn("Failed to record project ownership")
		}
	}
	return res, nil
}

// StopOptions controls Stop.
type StopOptions struct {
	// Force skips the ownership check and ignores failures to terminate
	// sessions or release the lock.
	Force bool

	// Host and SubPaths locate a project that was never registered because
	// its first sync failed. They're ignored for registered projects.
	Host     string
	SubPaths []string
}

// Stop terminates a project's sync sessions, releases its lock, and removes
// it from the user config. Unless opts.Force is set, only the project's
// owner may stop it, and any failure aborts before the project is forgotten.
// A lock held by another machine is left alone, even when forced.
//
// A project that isn't registered can be stopped if opts.Host is set and
// this machine holds its lock.
func (c Coordinator) Stop(project string, opts StopOptions) error {
	reg, registered, err := c.Registry.Lookup(project)
	if err != nil {
		return errors.WithContext(err, "lookup project")
	}
	if !registered {
		reg, err = c.unregistered(project, opts)
		if err != nil {
			return err
		}
	}

	log := c.Log.WithFields(logrus.Fields{
		"host":    reg.Remote,
		"project": project,
	})

	if registered && !opts.Force {
		auth := c.Ownership.CheckWriteAuthorization(reg.Remote, reg.RemotePath, c.Identity)
		if !auth.Authorized {
			return auth.Err(reg.RemotePath)
		}
	}

	if err := c.Sessions.TerminateProjectSync(reg); err != nil {
		if !opts.Force {
			return err
		}
		log.WithError(err).Warn("Ignoring failure to terminate sync sessions")
	}

	if err := c.releaseOwnLock(reg.Remote, project); err != nil {
		if !opts.Force {
			return err
		}
		log.WithError(err).Warn("Ignoring failure to release lock")
	}

	if registered {
		if _, err := c.Registry.Unregister(project); err != nil {
			return errors.WithContext(err, "unregister project")
		}
	}
	log.Info("Stopped syncing project")
	return nil
}

// unregistered returns the registration for a project whose first sync
// failed. Only the machine holding the project's lock can have left its
// sessions behind.
func (c Coordinator) unregistered(project string, opts StopOptions) (config.Registration, error) {
	if opts.Host == "" {
		return config.Registration{}, NotSyncedError{Project: project}
	}

	if err := config.ValidateProjectName(project); err != nil {
		return config.Registration{}, err
	}

	status, err := c.Locks.GetStatus(opts.Host, project, c.Identity)
	if err != nil {
		return config.Registration{}, err
	}
	if !status.OwnedByMe {
		return config.Registration{}, NotSyncedError{Project: project}
	}

	return config.Registration{
		Project:  project,
		Remote:   opts.Host,
		SubPaths: opts.SubPaths,
	}, nil
}

// releaseOwnLock releases the project's lock if this machine holds it. A
// lock taken over by another machine isn't ours to remove. `tether lock
// clear` is the only way to remove it.
func (c Coordinator) releaseOwnLock(host, project string) error {
	err := c.Locks.Release(host, project, c.Identity, false)
	if held, ok := err.(*lock.HeldError); ok {
		c.Log.WithFields(logrus.Fields{
			"host":    host,
			"project": project,
			"user":    held.Info.User,
			"machine": held.Info.Machine,
		}).Info("Lock is held by another machine, leaving it in place")
		return nil
	}
	return err
}

// ClearLock removes a project's lock regardless of who holds it, and returns
// the lock that was removed, if any.
func (c Coordinator) ClearLock(host, project string) (*lock.Info, error) {
	if err := config.ValidateProjectName(project); err != nil {
		return nil, err
	}

	info, err := c.Locks.Read(host, project)
	if err != nil {
		return nil, err
	}

	if err := c.Locks.Remove(host, project); err != nil {
		return nil, err
	}

	if info != nil {
		c.Log.WithFields(logrus.Fields{
			"host":    host,
			"project": project,
			"user":    info.User,
			"machine": info.Machine,
		}).Info("Cleared lock")
	}
	return info, nil
}

// LockStatus classifies the lock of one project.
func (c Coordinator) LockStatus(host, project string) lock.ProjectStatus {
	return c.Locks.GetAllStatuses([]lock.Target{{Host: host, Project: project}}, c.Identity)[0]
}

// AllLockStatuses classifies the locks of every synced project.
func (c Coordinator) AllLockStatuses() ([]lock.ProjectStatus, error) {
	regs, err := c.Registry.List()
	if err != nil {
		return nil, errors.WithContext(err, "list projects")
	}

	var targets []lock.Target
	for _, reg := range regs {
		targets = append(targets, lock.Target{Host: reg.Remote, Project: reg.Project})
	}
	return c.Locks.GetAllStatuses(targets, c.Identity), nil
}

// Owner returns the ownership status of a synced project.
func (c Coordinator) Owner(project string) (config.Registration, ownership.Status, error) {
	reg, ok, err := c.Registry.Lookup(project)
	if err != nil {
		return config.Registration{}, ownership.Status{}, errors.WithContext(err, "lookup project")
	}
	if !ok {
		return config.Registration{}, ownership.Status{}, NotSyncedError{Project: project}
	}

	status, err := c.Ownership.Status(reg.Remote, reg.RemotePath, c.Identity)
	return reg, status, err
}
