package util

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/tether/pkg/errors"
)

// Mocked out for unit testing.
var (
	exit                 = os.Exit
	stderr     io.Writer = os.Stderr
	tickPeriod           = 500 * time.Millisecond
)

// HandleFatalError handles errors that are severe enough to terminate the
// program. Friendly errors are printed verbatim.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	if msg, ok := errors.GetFriendlyMessage(err); ok {
		fmt.Fprintln(stderr, msg)
	} else {
		fmt.Fprintf(stderr, "Error: %s\n", err)
	}
	exit(1)
}

// HandlePanic logs a panic and exits. It must be deferred.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("Unexpected panic")
		fmt.Fprintf(stderr, "tether crashed unexpectedly: %v\n", r)
		exit(1)
	}
}

// ProgressPrinter animates a message on a single terminal line until it's
// stopped. The trailing status can be changed while it runs.
type ProgressPrinter struct {
	out io.Writer
	msg string

	mu     sync.Mutex
	status string

	stop chan struct{}
	done chan struct{}
}

// NewProgressPrinter creates a ProgressPrinter. Run must be started in a
// goroutine before Stop is called.
func NewProgressPrinter(out io.Writer, msg string) *ProgressPrinter {
	return &ProgressPrinter{
		out:  out,
		msg:  msg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Run prints the message until Stop is called.
func (pp *ProgressPrinter) Run() {
	defer close(pp.done)

	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for dots := 0; ; dots = (dots + 1) % 4 {
		pp.render(dots)
		select {
		case <-pp.stop:
			pp.render(3)
			fmt.Fprintln(pp.out)
			return
		case <-ticker.C:
		}
	}
}

// Update replaces the status shown after the message.
func (pp *ProgressPrinter) Update(status string) {
	pp.mu.Lock()
	pp.status = status
	pp.mu.Unlock()
}

// Stop stops the animation and waits for the final line to be printed.
func (pp *ProgressPrinter) Stop() {
	close(pp.stop)
	<-pp.done
}

func (pp *ProgressPrinter) render(dots int) {
	pp.mu.Lock()
	status := pp.status
	pp.mu.Unlock()

	line := pp.msg + strings.Repeat(".", dots)
	if status != "" {
		line += " " + status
	}

	// Return to the start of the line and clear it.
	fmt.Fprint(pp.out, "\r\033[K"+line)
}
