package identity

import (
	"os"
	"os/user"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	defer func() {
		currentUser = user.Current
		hostname = os.Hostname
		getpid = os.Getpid
	}()

	currentUser = func() (*user.User, error) {
		return &user.User{Username: "alice"}, nil
	}
	hostname = func() (string, error) { return "laptop", nil }
	getpid = func() int { return 42 }

	id, err := Resolve()
	assert.NoError(t, err)
	assert.Equal(t, Identity{User: "alice", Machine: "laptop", PID: 42}, id)

	hostname = func() (string, error) { return "", assert.AnError }
	_, err = Resolve()
	assert.EqualError(t, err, "get hostname: "+assert.AnError.Error())
}

func TestSameMachineUser(t *testing.T) {
	alice := Identity{User: "alice", Machine: "laptop", PID: 1}
	assert.True(t, alice.SameMachineUser(Identity{User: "alice", Machine: "laptop", PID: 2}))
	assert.False(t, alice.SameMachineUser(Identity{User: "alice", Machine: "desktop"}))
	assert.False(t, alice.SameMachineUser(Identity{User: "bob", Machine: "laptop"}))
}
