// Package session drives the sync engine through the lifecycle of a clone or
// push: create the project's sessions, wait for them to converge, and only
// then record the project as synced.
package session

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sidkik/tether/pkg/config"
	"github.com/sidkik/tether/pkg/errors"
	"github.com/sidkik/tether/pkg/syncengine"
)

// Prefix starts every session name created by tether.
const Prefix = "tether"

// Stage identifies the step of FinalizeProjectSync that failed.
type Stage string

const (
	// StageCreate is creating the engine sessions.
	StageCreate Stage = "create"

	// StageSync is waiting for the sessions to converge.
	StageSync Stage = "sync"

	// StageRegister is recording the project in the user config.
	StageRegister Stage = "register"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// sanitize lower-cases `s` and turns every run of characters other than
// letters and digits into a single "-". The engine only accepts those
// characters in session names.
func sanitize(s string) string {
	sanitized := nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(sanitized, "-")
}

// SessionName returns the name of the whole-tree session for `project`.
// The project name is sanitized, so "my.app" and "my_app" both map to
// "tether-my-app".
func SessionName(project string) string {
	return Prefix + "-" + sanitize(project)
}

// SelectiveSessionName returns the name of the session that syncs `subPath`
// of `project`. The sub-path is sanitized the same way as the project, so
// "packages/web_ui" and "packages/web-ui" share a name.
func SelectiveSessionName(project, subPath string) string {
	sanitized := sanitize(subPath)
	if sanitized == "" {
		return SessionName(project)
	}
	return SessionName(project) + "-" + sanitized
}

// SessionNames returns the names of the sessions that sync `project`, one
// per sub-path, or a single whole-tree session if there are none.
func SessionNames(project string, subPaths []string) []string {
	if len(subPaths) == 0 {
		return []string{SessionName(project)}
	}

	var names []string
	for _, subPath := range subPaths {
		names = append(names, SelectiveSessionName(project, subPath))
	}
	return names
}

// Options describes the project to sync.
type Options struct {
	Project    string
	Host       string
	RemotePath string
	LocalPath  string

	// SubPaths selects selective sync. Each sub-path gets its own session.
	SubPaths []string

	Ignores    []string
	OnProgress syncengine.ProgressFunc

	// Resume reuses sessions that already exist instead of failing to create
	// them. It's set when this machine already holds the project's lock,
	// which means the sessions were left behind by an earlier failed sync.
	Resume bool
}

// Registration returns the record that's written once the project is
// synced.
func (opts Options) Registration() config.Registration {
	return config.Registration{
		Project:    opts.Project,
		Remote:     opts.Host,
		RemotePath: opts.RemotePath,
		LocalPath:  opts.LocalPath,
		SubPaths:   opts.SubPaths,
	}
}

func (opts Options) specs() []syncengine.Spec {
	if len(opts.SubPaths) == 0 {
		return []syncengine.Spec{{
			Name:      SessionName(opts.Project),
			LocalPath: opts.LocalPath,
			Remote:    syncengine.RemoteEndpoint(opts.Host, opts.RemotePath),
			Ignores:   opts.Ignores,
		}}
	}

	var specs []syncengine.Spec
	for _, subPath := range opts.SubPaths {
		specs = append(specs, syncengine.Spec{
			Name:      SelectiveSessionName(opts.Project, subPath),
			LocalPath: filepath.Join(opts.LocalPath, filepath.FromSlash(subPath)),
			Remote: syncengine.RemoteEndpoint(opts.Host,
				path.Join(opts.RemotePath, subPath)),
			Ignores: opts.Ignores,
		})
	}
	return specs
}

// Result is the outcome of FinalizeProjectSync.
type Result struct {
	Success bool

	// Stage and Error are set when Success is false.
	Stage Stage
	Error string

	// Sessions are the sessions that were created.
	Sessions []string
}

// Err returns the failure as an error, or nil if the sync succeeded.
func (res Result) Err() error {
	if res.Success {
		return nil
	}
	return &StageError{Stage: res.Stage, Message: res.Error}
}

// StageError is a FinalizeProjectSync failure.
type StageError struct {
	Stage   Stage
	Message string
}

func (err *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %s", err.Stage, err.Message)
}

// FriendlyMessage implements errors.Friendly.
func (err *StageError) FriendlyMessage() string {
	switch err.Stage {
	case StageCreate:
		return fmt.Sprintf("The sync session could not be created:\n%s", err.Message)
	case StageSync:
		return fmt.Sprintf("The sync session was created but never finished "+
			"its initial sync:\n%s\n\nThe session is still running. Run "+
			"the command again to resume waiting, or "+
			"`tether stop --remote <host> <project>` to give up.",
			err.Message)
	default:
		return fmt.Sprintf("The project synced, but could not be saved to "+
			"the tether config:\n%s", err.Message)
	}
}

// Registrar records synced projects.
type Registrar interface {
	Register(reg config.Registration) error
}

// Orchestrator runs sync engine sessions for projects.
type Orchestrator struct {
	engine    syncengine.Engine
	registrar Registrar
	log       logrus.FieldLogger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(engine syncengine.Engine, registrar Registrar,
	log logrus.FieldLogger) Orchestrator {
	return Orchestrator{engine: engine, registrar: registrar, log: log}
}

// CreateProjectSyncSession creates the sessions for the project and returns
// their names. If creating one of several sessions fails, the sessions
// already created by this call are terminated so that a retry isn't rejected
// for reusing their names. With opts.Resume, sessions that already exist
// are returned without being created, and are never rolled back.
func (o Orchestrator) CreateProjectSyncSession(opts Options) ([]string, error) {
	var sessions, created []string
	for _, spec := range opts.specs() {
		log := o.log.WithFields(logrus.Fields{
			"project": opts.Project,
			"session": spec.Name,
		})

		if opts.Resume {
			exists, err := o.engine.Exists(spec.Name)
			if err != nil {
				o.rollback(opts.Project, created)
				return nil, errors.WithContext(err, fmt.Sprintf("check %s", spec.Name))
			}

			if exists {
				log.Info("Resuming existing sync session")
				sessions = append(sessions, spec.Name)
				continue
			}
		}

		log.Debug("Creating sync session")
		if err := o.engine.Create(spec); err != nil {
			o.rollback(opts.Project, created)
			return nil, errors.WithContext(err, fmt.Sprintf("create %s", spec.Name))
		}
		created = append(created, spec.Name)
		sessions = append(sessions, spec.Name)
	}
	return sessions, nil
}

func (o Orchestrator) rollback(project string, sessions []string) {
	for _, name := range sessions {
		if err := o.engine.Terminate(name); err != nil {
			o.log.WithError(err).WithFields(logrus.Fields{
				"project": project,
				"session": name,
			}).Warn("Failed to terminate partially created sync session")
		}
	}
}

// WaitForSync blocks until every session in `names` has flushed, in order.
// There is no timeout.
func (o Orchestrator) WaitForSync(names []string, onProgress syncengine.ProgressFunc) error {
	for _, name := range names {
		o.log.WithField("session", name).Debug("Waiting for sync session to flush")
		if err := o.engine.WaitUntilFlushed(name, onProgress); err != nil {
			return errors.WithContext(err, fmt.Sprintf("wait for %s", name))
		}
	}
	return nil
}

// FinalizeProjectSync creates the project's sessions, waits for them to
// converge, and then registers the project. The project is registered only
// if every stage succeeds. Sessions are left running when the sync stage
// fails, since the engine can resume them.
func (o Orchestrator) FinalizeProjectSync(opts Options) Result {
	log := o.log.WithField("project", opts.Project)

	sessions, err := o.CreateProjectSyncSession(opts)
	if err != nil {
		log.WithError(err).WithField("stage", StageCreate).Debug("Sync failed")
		return Result{Stage: StageCreate, Error: err.Error()}
	}

	if err := o.WaitForSync(sessions, opts.OnProgress); err != nil {
		log.WithError(err).WithField("stage", StageSync).Debug("Sync failed")
		return Result{Stage: StageSync, Error: err.Error(), Sessions: sessions}
	}

	if err := o.registrar.Register(opts.Registration()); err != nil {
		log.WithError(err).WithField("stage", StageRegister).Debug("Sync failed")
		return Result{Stage: StageRegister, Error: err.Error(), Sessions: sessions}
	}

	log.WithField("sessions", sessions).Info("Project synced")
	return Result{Success: true, Sessions: sessions}
}

// TerminateProjectSync terminates every session of a project. Sessions that
// are already gone are skipped. It attempts all of them and returns the
// first error.
func (o Orchestrator) TerminateProjectSync(reg config.Registration) error {
	var firstErr error
	for _, name := range SessionNames(reg.Project, reg.SubPaths) {
		err := o.engine.Terminate(name)
		if err == nil {
			o.log.WithField("session", name).Debug("Terminated sync session")
			continue
		}

		var notFound *syncengine.SessionNotFoundError
		if errors.As(err, &notFound) {
			o.log.WithField("session", name).Debug("Sync session already terminated")
			continue
		}

		o.log.WithError(err).WithField("session", name).Warn("Failed to terminate sync session")
		if firstErr == nil {
			firstErr = errors.WithContext(err, fmt.Sprintf("terminate %s", name))
		}
	}
	return firstErr
}
