package remote

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultConnectTimeout is the ssh ConnectTimeout, in seconds.
const DefaultConnectTimeout = 10

// Mocked out for unit testing.
var execCommand = exec.Command

// SSH runs commands through the system `ssh` binary. Host names are passed
// straight through, so anything in the user's ~/.ssh/config works.
type SSH struct {
	// Binary is the ssh executable. Defaults to "ssh".
	Binary string

	// ConnectTimeout is in seconds. Zero means DefaultConnectTimeout.
	ConnectTimeout int

	// ExtraOptions are passed as `-o` options, e.g. "ControlMaster=auto".
	ExtraOptions []string
}

// NewSSH returns an SSH executor with the given extra `-o` options.
func NewSSH(extraOptions []string) SSH {
	return SSH{
		Binary:         "ssh",
		ConnectTimeout: DefaultConnectTimeout,
		ExtraOptions:   extraOptions,
	}
}

// Args returns the arguments passed to ssh for running `command` on `host`.
func (s SSH) Args(host, command string) []string {
	timeout := s.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	// BatchMode keeps ssh from prompting for a password, which would hang
	// since stdin isn't attached.
	args := []string{
		"-o", "BatchMode=yes",
		"-o", fmt.Sprintf("ConnectTimeout=%d", timeout),
	}
	for _, opt := range s.ExtraOptions {
		args = append(args, "-o", opt)
	}
	return append(args, host, "--", command)
}

// Exec implements Executor.
func (s SSH) Exec(host, command string) Result {
	binary := s.Binary
	if binary == "" {
		binary = "ssh"
	}

	var stdout, stderr bytes.Buffer
	cmd := execCommand(binary, s.Args(host, command)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		log.WithFields(log.Fields{
			"host":  host,
			"error": msg,
		}).Debug("Remote command failed")
		return Result{Stdout: stdout.String(), Error: msg}
	}
	return Result{Success: true, Stdout: stdout.String()}
}
