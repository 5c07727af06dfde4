package clone

import (
	"github.com/spf13/cobra"

	"github.com/sidkik/tether/cmd/util"
)

// New creates a new `clone` command.
func New() *cobra.Command {
	var flags util.SyncFlags
	cmd := &cobra.Command{
		Use:   "clone REMOTE PROJECT",
		Short: "Start syncing a project from a remote host",
		Long: "Start a two-way sync between a project on REMOTE and a local " +
			"directory.\nThe project is locked for this machine until " +
			"`tether stop` is run.",
		Args: cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(args[0], args[1], flags); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	flags.Register(cmd, "The local directory to sync into. Defaults to ./PROJECT.")
	return cmd
}

func run(host, projectName string, flags util.SyncFlags) error {
	userConfig, coordinator, err := util.Setup()
	if err != nil {
		return err
	}

	opts, err := util.SyncOptions(userConfig, host, projectName, flags, projectName)
	if err != nil {
		return err
	}
	return util.RunSync(userConfig, opts, coordinator.Clone)
}
