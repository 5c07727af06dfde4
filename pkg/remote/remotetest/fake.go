// Package remotetest provides an in-memory remote host for tests. It
// understands exactly the commands built by the remote package's file
// helpers, so stores can be round-trip tested without ssh.
package remotetest

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/sidkik/tether/pkg/remote"
)

// Fake is a set of in-memory remote hosts. The zero value is not usable;
// use New.
type Fake struct {
	mu    sync.Mutex
	files map[string]map[string]string

	// Down lists hosts that behave as unreachable.
	Down map[string]bool

	// Commands records every command executed, in order.
	Commands []string
}

// New returns a Fake with no files and every host reachable.
func New() *Fake {
	return &Fake{
		files: map[string]map[string]string{},
		Down:  map[string]bool{},
	}
}

// SetFile writes a file directly. Paths use `~` for the home directory.
func (f *Fake) SetFile(host, path, contents string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hostFiles(host)[path] = contents
}

// File returns the contents of a file and whether it exists.
func (f *Fake) File(host, path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	contents, ok := f.hostFiles(host)[path]
	return contents, ok
}

// Exec implements remote.Executor.
func (f *Fake) Exec(host, command string) remote.Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Commands = append(f.Commands, command)
	if f.Down[host] {
		return remote.Result{Error: fmt.Sprintf("ssh: Could not resolve hostname %s", host)}
	}

	words, err := shellquote.Split(command)
	if err != nil || len(words) == 0 {
		return remote.Result{Error: fmt.Sprintf("unparseable command: %q", command)}
	}

	files := f.hostFiles(host)
	switch words[0] {
	case "cat":
		return remote.Result{Success: true, Stdout: files[normalize(words[1])]}
	case "rm":
		delete(files, normalize(words[len(words)-1]))
		return remote.Result{Success: true}
	case "mkdir":
		return f.write(files, words)
	}
	return remote.Result{Error: fmt.Sprintf("unsupported command: %q", command)}
}

func (f *Fake) write(files map[string]string, words []string) remote.Result {
	payload, path := wordAfter(words, "%s"), normalize(wordAfter(words, ">"))
	contents, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || path == "" {
		return remote.Result{Error: "base64: invalid input"}
	}

	exclusive := wordAfter(words, "set") == "-C;"
	if !exclusive {
		files[path] = string(contents)
		return remote.Result{Success: true}
	}

	if _, ok := files[path]; ok {
		return remote.Result{Success: true, Stdout: remote.ExistsMarker + "\n"}
	}
	files[path] = string(contents)
	return remote.Result{Success: true, Stdout: remote.CreatedMarker + "\n"}
}

func (f *Fake) hostFiles(host string) map[string]string {
	files, ok := f.files[host]
	if !ok {
		files = map[string]string{}
		f.files[host] = files
	}
	return files
}

func wordAfter(words []string, marker string) string {
	for i, word := range words[:len(words)-1] {
		if word == marker {
			return words[i+1]
		}
	}
	return ""
}

// normalize maps the "$HOME" produced by remote.QuotePath back to `~`.
func normalize(path string) string {
	if strings.HasPrefix(path, "$HOME") {
		return "~" + strings.TrimPrefix(path, "$HOME")
	}
	return path
}
