package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/tether/cmd/clone"
	configCmd "github.com/sidkik/tether/cmd/config"
	lockCmd "github.com/sidkik/tether/cmd/lock"
	"github.com/sidkik/tether/cmd/owner"
	"github.com/sidkik/tether/cmd/projects"
	"github.com/sidkik/tether/cmd/push"
	"github.com/sidkik/tether/cmd/stop"
	"github.com/sidkik/tether/cmd/util"
	"github.com/sidkik/tether/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "TETHER_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:   "tether",
		Short: "Sync projects between this machine and remote development hosts",
		Long: "tether keeps a local directory and a directory on a remote host " +
			"in sync.\nProjects are locked while a machine is syncing them, " +
			"and only a project's owner may push to it.",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		clone.New(),
		configCmd.New(),
		lockCmd.New(),
		owner.New(),
		projects.New(),
		push.New(),
		stop.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
