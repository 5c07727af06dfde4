package util

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sidkik/tether/pkg/errors"
)

func mockExit(t *testing.T) (*bytes.Buffer, *int) {
	var out bytes.Buffer
	code := -1
	stderr = &out
	exit = func(c int) { code = c }
	return &out, &code
}

func TestHandleFatalError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expOut string
	}{
		{
			name:   "Friendly",
			err:    errors.WithContext(errors.NewFriendlyError("Project %q is locked.", "myapp"), "push"),
			expOut: "Project \"myapp\" is locked.\n",
		},
		{
			name:   "Plain",
			err:    errors.WithContext(errors.New("permission denied"), "write config"),
			expOut: "Error: write config: permission denied\n",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			out, code := mockExit(t)
			HandleFatalError(test.err)
			assert.Equal(t, test.expOut, out.String())
			assert.Equal(t, 1, *code)
		})
	}
}

func TestHandlePanic(t *testing.T) {
	out, code := mockExit(t)
	func() {
		defer HandlePanic()
		panic("boom")
	}()
	assert.Equal(t, 1, *code)
	assert.Contains(t, out.String(), "boom")

	out, code = mockExit(t)
	func() {
		defer HandlePanic()
	}()
	assert.Equal(t, -1, *code)
	assert.Empty(t, out.String())
}

func TestProgressPrinter(t *testing.T) {
	tickPeriod = time.Millisecond

	var out bytes.Buffer
	pp := NewProgressPrinter(&out, "Syncing myapp")
	go pp.Run()
	pp.Update("Staging files")
	time.Sleep(10 * time.Millisecond)
	pp.Stop()

	assert.Contains(t, out.String(), "Syncing myapp")
	assert.True(t, bytes.HasSuffix(out.Bytes(), []byte("Syncing myapp... Staging files\n")),
		"unexpected output %q", out.String())
}
