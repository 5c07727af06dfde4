package remote

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

// Markers echoed by CreateFileCommand so that callers can tell "the file
// already existed" apart from "the command failed".
const (
	CreatedMarker = "created"
	ExistsMarker  = "exists"
)

// QuotePath quotes a remote path for the remote shell. A leading `~` is
// rewritten to "$HOME" so that it still expands once quoted.
func QuotePath(p string) string {
	switch {
	case p == "~":
		return `"$HOME"`
	case strings.HasPrefix(p, "~/"):
		return `"$HOME"/` + shellquote.Join(p[2:])
	default:
		return shellquote.Join(p)
	}
}

// ReadFileCommand prints the file at `p`. A missing file prints nothing and
// still succeeds, so an empty Stdout means the file is absent.
func ReadFileCommand(p string) string {
	return fmt.Sprintf("cat %s 2>/dev/null || true", QuotePath(p))
}

// WriteFileCommand overwrites the file at `p` with `contents`. The contents
// are sent base64-encoded and decoded remotely so that arbitrary bytes never
// need shell quoting.
func WriteFileCommand(p string, contents []byte) string {
	return fmt.Sprintf("mkdir -p %s && printf %%s %s | base64 -d > %s",
		QuotePath(path.Dir(p)), encode(contents), QuotePath(p))
}

// CreateFileCommand writes the file at `p` only if it doesn't already exist,
// using the shell's noclobber option for an exclusive create. It prints
// CreatedMarker or ExistsMarker.
func CreateFileCommand(p string, contents []byte) string {
	return fmt.Sprintf("mkdir -p %s && if ( set -C; printf %%s %s | base64 -d > %s ) 2>/dev/null; "+
		"then echo %s; else echo %s; fi",
		QuotePath(path.Dir(p)), encode(contents), QuotePath(p),
		CreatedMarker, ExistsMarker)
}

// RemoveFileCommand removes the file at `p`. Removing a missing file
// succeeds.
func RemoveFileCommand(p string) string {
	return fmt.Sprintf("rm -f %s", QuotePath(p))
}

func encode(contents []byte) string {
	return shellquote.Join(base64.StdEncoding.EncodeToString(contents))
}
