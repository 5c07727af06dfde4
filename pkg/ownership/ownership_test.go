package ownership

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/tether/pkg/errors"
	"github.com/sidkik/tether/pkg/identity"
	"github.com/sidkik/tether/pkg/remote"
	"github.com/sidkik/tether/pkg/remote/remotetest"
)

const (
	host        = "myserver"
	projectPath = "~/tether/myapp"
)

var (
	alice = identity.Identity{User: "alice", Machine: "laptop", PID: 1}
	bob   = identity.Identity{User: "bob", Machine: "desktop", PID: 2}
)

func newTestStore() (Store, *remotetest.Fake, *logrusTest.Hook) {
	fake := remotetest.New()
	logger, hook := logrusTest.NewNullLogger()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewStore(fake, clock, logger), fake, hook
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expState remote.FileState
		expErr   error
	}{
		{"Empty", "", remote.Absent, nil},
		{"Valid", `{"owner":"alice","created":"2024-03-01T12:00:00Z","machine":"laptop"}`, remote.Valid, nil},
		{"Truncated", `{"owner":"al`, remote.Corrupt, nil},
		{"MissingOwner", `{"created":"2024-03-01T12:00:00Z","machine":"laptop"}`, remote.Corrupt,
			errors.MissingFieldError{Record: "ownership", Field: "owner"}},
		{"MissingMachine", `{"owner":"alice","created":"2024-03-01T12:00:00Z"}`, remote.Corrupt,
			errors.MissingFieldError{Record: "ownership", Field: "machine"}},
		{"BadCreated", `{"owner":"alice","created":"last week","machine":"laptop"}`, remote.Corrupt, nil},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			res := Decode(test.raw)
			assert.Equal(t, test.expState, res.State)
			if test.expErr != nil {
				assert.Equal(t, test.expErr, res.Err)
			}
			if test.expState == remote.Corrupt {
				assert.Equal(t, test.raw, res.Raw)
				assert.Error(t, res.Err)
			}
		})
	}
}

func TestSetAndStatus(t *testing.T) {
	store, fake, _ := newTestStore()

	status, err := store.Status(host, projectPath, alice)
	require.NoError(t, err)
	assert.Equal(t, Status{}, status)

	require.NoError(t, store.Set(host, projectPath, alice))
	raw, ok := fake.File(host, "~/tether/myapp/.tether-owner")
	require.True(t, ok)
	assert.JSONEq(t, `{"owner":"alice","created":"2024-03-01T12:00:00Z","machine":"laptop"}`, raw)

	expInfo := &Info{Owner: "alice", Created: "2024-03-01T12:00:00Z", Machine: "laptop"}
	status, err = store.Status(host, projectPath, alice)
	require.NoError(t, err)
	assert.Equal(t, Status{HasOwner: true, IsOwner: true, Info: expInfo}, status)

	status, err = store.Status(host, projectPath, bob)
	require.NoError(t, err)
	assert.Equal(t, Status{HasOwner: true, IsOwner: false, Info: expInfo}, status)

	// Setting again as the owner is a no-op, even from another machine.
	assert.NoError(t, store.Set(host, projectPath, identity.Identity{User: "alice", Machine: "desktop"}))
	raw2, _ := fake.File(host, "~/tether/myapp/.tether-owner")
	assert.Equal(t, raw, raw2)

	// A non-owner can't take over.
	err = store.Set(host, projectPath, bob)
	notOwner, ok := err.(*NotOwnerError)
	require.True(t, ok)
	assert.Equal(t, "alice", notOwner.Info.Owner)
	raw3, _ := fake.File(host, "~/tether/myapp/.tether-owner")
	assert.Equal(t, raw, raw3)
}

func TestStatusCorrupt(t *testing.T) {
	store, fake, hook := newTestStore()
	fake.SetFile(host, Path(projectPath), "{not json")

	status, err := store.Status(host, projectPath, alice)
	require.NoError(t, err)
	assert.False(t, status.HasOwner)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "Ignoring unparseable ownership file", hook.LastEntry().Message)
}

func TestSetReplacesCorrupt(t *testing.T) {
	for _, raw := range []string{"{not json", "", `{"owner":"alice"}`} {
		raw := raw
		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			store, fake, hook := newTestStore()
			fake.SetFile(host, Path(projectPath), raw)

			require.NoError(t, store.Set(host, projectPath, bob))
			status, err := store.Status(host, projectPath, bob)
			require.NoError(t, err)
			assert.True(t, status.IsOwner)
			assert.Equal(t, "Replacing unusable ownership file", hook.AllEntries()[0].Message)
		})
	}
}

func TestStatusUnreachable(t *testing.T) {
	store, fake, _ := newTestStore()
	fake.Down[host] = true

	_, err := store.Status(host, projectPath, alice)
	assert.Error(t, err)
	assert.Error(t, store.Set(host, projectPath, alice))
}
