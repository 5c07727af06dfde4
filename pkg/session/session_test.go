package session

import (
	"testing"

	"github.com/sirupsen/logrus"
	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/tether/pkg/config"
	"github.com/sidkik/tether/pkg/errors"
	"github.com/sidkik/tether/pkg/syncengine"
	"github.com/sidkik/tether/pkg/syncengine/mocks"
)

type fakeRegistrar struct {
	registered []config.Registration
	err        error
}

func (r *fakeRegistrar) Register(reg config.Registration) error {
	if r.err != nil {
		return r.err
	}
	r.registered = append(r.registered, reg)
	return nil
}

var myappOpts = Options{
	Project:    "myapp",
	Host:       "myserver",
	RemotePath: "~/tether/myapp",
	LocalPath:  "/home/alice/myapp",
	Ignores:    []string{"node_modules"},
}

func TestSessionNames(t *testing.T) {
	tests := []struct {
		name     string
		subPaths []string
		exp      []string
	}{
		{
			name: "WholeTree",
			exp:  []string{"tether-myapp"},
		},
		{
			name:     "Selective",
			subPaths: []string{"packages/frontend", "packages/backend"},
			exp:      []string{"tether-myapp-packages-frontend", "tether-myapp-packages-backend"},
		},
		{
			name:     "Sanitized",
			subPaths: []string{"/Services/Web_UI/", "docs//v2.0"},
			exp:      []string{"tether-myapp-services-web-ui", "tether-myapp-docs-v2-0"},
		},
		{
			name:     "OnlyPunctuation",
			subPaths: []string{"./"},
			exp:      []string{"tether-myapp"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, SessionNames("myapp", test.subPaths))
		})
	}
}

func TestSessionNameProject(t *testing.T) {
	tests := []struct {
		project string
		exp     string
	}{
		{"myapp", "tether-myapp"},
		{"my.app", "tether-my-app"},
		{"my_app", "tether-my-app"},
		{"MyApp-2", "tether-myapp-2"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.project, func(t *testing.T) {
			assert.Equal(t, test.exp, SessionName(test.project))
			assert.Equal(t, test.exp+"-web", SelectiveSessionName(test.project, "web"))
		})
	}
}

func TestSelectiveSessionNameCollision(t *testing.T) {
	// Sub-paths that only differ in punctuation share a session name.
	assert.Equal(t,
		SelectiveSessionName("myapp", "packages/web_ui"),
		SelectiveSessionName("myapp", "packages/web-ui"))
	assert.Equal(t,
		SelectiveSessionName("myapp", "packages/frontend"),
		SelectiveSessionName("myapp", "packages/frontend"))
}

func TestFinalizeProjectSync(t *testing.T) {
	engine := &mocks.Engine{}
	registrar := &fakeRegistrar{}
	log, _ := logrusTest.NewNullLogger()
	orchestrator := NewOrchestrator(engine, registrar, log)

	engine.On("Create", syncengine.Spec{
		Name:      "tether-myapp",
		LocalPath: "/home/alice/myapp",
		Remote:    "myserver:~/tether/myapp",
		Ignores:   []string{"node_modules"},
	}).Return(nil).Once()
	engine.On("WaitUntilFlushed", "tether-myapp", mock.Anything).Return(nil).Once()

	res := orchestrator.FinalizeProjectSync(myappOpts)
	assert.Equal(t, Result{Success: true, Sessions: []string{"tether-myapp"}}, res)
	assert.NoError(t, res.Err())
	require.Len(t, registrar.registered, 1)
	assert.Equal(t, "myapp", registrar.registered[0].Project)
	assert.Equal(t, "myserver", registrar.registered[0].Remote)
	engine.AssertExpectations(t)
}

func TestFinalizeProjectSyncCreateFails(t *testing.T) {
	engine := &mocks.Engine{}
	registrar := &fakeRegistrar{}
	log, _ := logrusTest.NewNullLogger()
	orchestrator := NewOrchestrator(engine, registrar, log)

	engine.On("Create", mock.Anything).Return(errors.New("name already in use")).Once()

	res := orchestrator.FinalizeProjectSync(myappOpts)
	assert.False(t, res.Success)
	assert.Equal(t, StageCreate, res.Stage)
	assert.Equal(t, "create tether-myapp: name already in use", res.Error)
	assert.Empty(t, registrar.registered)
	engine.AssertNotCalled(t, "WaitUntilFlushed", mock.Anything, mock.Anything)

	stageErr, ok := res.Err().(*StageError)
	require.True(t, ok)
	assert.Contains(t, stageErr.FriendlyMessage(), "could not be created")
}

func TestFinalizeProjectSyncFlushFails(t *testing.T) {
	engine := &mocks.Engine{}
	registrar := &fakeRegistrar{}
	log, _ := logrusTest.NewNullLogger()
	orchestrator := NewOrchestrator(engine, registrar, log)

	engine.On("Create", mock.Anything).Return(nil).Once()
	engine.On("WaitUntilFlushed", "tether-myapp", mock.Anything).
		Return(errors.New("connection lost")).Once()

	res := orchestrator.FinalizeProjectSync(myappOpts)
	assert.Equal(t, Result{
		Stage:    StageSync,
		Error:    "wait for tether-myapp: connection lost",
		Sessions: []string{"tether-myapp"},
	}, res)
	assert.Empty(t, registrar.registered)

	// The session is left for the engine to resume.
	engine.AssertNotCalled(t, "Terminate", mock.Anything)
	assert.Contains(t, res.Err().(*StageError).FriendlyMessage(), "never finished")
}

func TestFinalizeProjectSyncRegisterFails(t *testing.T) {
	engine := &mocks.Engine{}
	registrar := &fakeRegistrar{err: errors.New("read-only file system")}
	log, _ := logrusTest.NewNullLogger()
	orchestrator := NewOrchestrator(engine, registrar, log)

	engine.On("Create", mock.Anything).Return(nil)
	engine.On("WaitUntilFlushed", mock.Anything, mock.Anything).Return(nil)

	res := orchestrator.FinalizeProjectSync(myappOpts)
	assert.False(t, res.Success)
	assert.Equal(t, StageRegister, res.Stage)
	assert.Equal(t, "read-only file system", res.Error)
}

func TestSelectiveFanOut(t *testing.T) {
	engine := &mocks.Engine{}
	registrar := &fakeRegistrar{}
	log, _ := logrusTest.NewNullLogger()
	orchestrator := NewOrchestrator(engine, registrar, log)

	opts := myappOpts
	opts.SubPaths = []string{"packages/frontend", "packages/backend"}

	engine.On("Create", syncengine.Spec{
		Name:      "tether-myapp-packages-frontend",
		LocalPath: "/home/alice/myapp/packages/frontend",
		Remote:    "myserver:~/tether/myapp/packages/frontend",
		Ignores:   []string{"node_modules"},
	}).Return(nil).Once()
	engine.On("Create", syncengine.Spec{
		Name:      "tether-myapp-packages-backend",
		LocalPath: "/home/alice/myapp/packages/backend",
		Remote:    "myserver:~/tether/myapp/packages/backend",
		Ignores:   []string{"node_modules"},
	}).Return(nil).Once()

	var flushed []string
	engine.On("WaitUntilFlushed", mock.Anything, mock.Anything).Return(nil).
		Run(func(args mock.Arguments) {
			flushed = append(flushed, args.String(0))
			args.Get(1).(syncengine.ProgressFunc)("Synchronization complete")
		})

	var progress []string
	opts.OnProgress = func(msg string) { progress = append(progress, msg) }

	res := orchestrator.FinalizeProjectSync(opts)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"tether-myapp-packages-frontend", "tether-myapp-packages-backend"},
		res.Sessions)
	assert.Equal(t, res.Sessions, flushed)
	assert.Equal(t, []string{"Synchronization complete", "Synchronization complete"}, progress)
	require.Len(t, registrar.registered, 1)
	assert.Equal(t, opts.SubPaths, registrar.registered[0].SubPaths)
	engine.AssertExpectations(t)
}

func TestFanOutRollback(t *testing.T) {
	engine := &mocks.Engine{}
	log, hook := logrusTest.NewNullLogger()
	orchestrator := NewOrchestrator(engine, &fakeRegistrar{}, log)

	opts := myappOpts
	opts.SubPaths = []string{"a", "b", "c"}

	engine.On("Create", mock.MatchedBy(func(spec syncengine.Spec) bool {
		return spec.Name != "tether-myapp-c"
	})).Return(nil)
	engine.On("Create", mock.Anything).Return(errors.New("disk full"))
	engine.On("Terminate", "tether-myapp-a").Return(nil).Once()
	engine.On("Terminate", "tether-myapp-b").Return(errors.New("no such session")).Once()

	names, err := orchestrator.CreateProjectSyncSession(opts)
	assert.Nil(t, names)
	assert.EqualError(t, err, "create tether-myapp-c: disk full")
	engine.AssertExpectations(t)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "tether-myapp-b", entry.Data["session"])
}

func TestFinalizeProjectSyncResume(t *testing.T) {
	engine := &mocks.Engine{}
	registrar := &fakeRegistrar{}
	log, _ := logrusTest.NewNullLogger()
	orchestrator := NewOrchestrator(engine, registrar, log)

	opts := myappOpts
	opts.SubPaths = []string{"api", "web"}
	opts.Resume = true

	// The api session survived an earlier failed sync. The web session was
	// never created.
	engine.On("Exists", "tether-myapp-api").Return(true, nil).Once()
	engine.On("Exists", "tether-myapp-web").Return(false, nil).Once()
	engine.On("Create", mock.MatchedBy(func(spec syncengine.Spec) bool {
		return spec.Name == "tether-myapp-web"
	})).Return(nil).Once()
	engine.On("WaitUntilFlushed", mock.Anything, mock.Anything).Return(nil).Twice()

	res := orchestrator.FinalizeProjectSync(opts)
	assert.Equal(t, Result{Success: true,
		Sessions: []string{"tether-myapp-api", "tether-myapp-web"}}, res)
	require.Len(t, registrar.registered, 1)
	engine.AssertExpectations(t)
}

func TestResumeExistsFails(t *testing.T) {
	engine := &mocks.Engine{}
	log, _ := logrusTest.NewNullLogger()
	orchestrator := NewOrchestrator(engine, &fakeRegistrar{}, log)

	opts := myappOpts
	opts.SubPaths = []string{"api", "web"}
	opts.Resume = true

	engine.On("Exists", "tether-myapp-api").Return(false, nil).Once()
	engine.On("Create", mock.Anything).Return(nil).Once()
	engine.On("Exists", "tether-myapp-web").Return(false, errors.New("daemon not running")).Once()
	engine.On("Terminate", "tether-myapp-api").Return(nil).Once()

	names, err := orchestrator.CreateProjectSyncSession(opts)
	assert.Nil(t, names)
	assert.EqualError(t, err, "check tether-myapp-web: daemon not running")
	engine.AssertExpectations(t)
}

func TestTerminateProjectSync(t *testing.T) {
	engine := &mocks.Engine{}
	log, _ := logrusTest.NewNullLogger()
	orchestrator := NewOrchestrator(engine, &fakeRegistrar{}, log)

	engine.On("Terminate", "tether-myapp-api").Return(errors.New("daemon not running")).Once()
	engine.On("Terminate", "tether-myapp-web").Return(nil).Once()

	err := orchestrator.TerminateProjectSync(config.Registration{
		Project:  "myapp",
		SubPaths: []string{"api", "web"},
	})
	assert.EqualError(t, err, "terminate tether-myapp-api: daemon not running")
	engine.AssertExpectations(t)
}

func TestTerminateProjectSyncAlreadyGone(t *testing.T) {
	engine := &mocks.Engine{}
	log, _ := logrusTest.NewNullLogger()
	orchestrator := NewOrchestrator(engine, &fakeRegistrar{}, log)

	engine.On("Terminate", "tether-myapp").
		Return(&syncengine.SessionNotFoundError{Name: "tether-myapp"}).Once()

	err := orchestrator.TerminateProjectSync(config.Registration{Project: "myapp"})
	assert.NoError(t, err)
	engine.AssertExpectations(t)
}
