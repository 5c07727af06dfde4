package push

import (
	"github.com/spf13/cobra"

	"github.com/sidkik/tether/cmd/util"
)

// New creates a new `push` command.
func New() *cobra.Command {
	var flags util.SyncFlags
	cmd := &cobra.Command{
		Use:   "push REMOTE PROJECT",
		Short: "Start syncing a local project to a remote host",
		Long: "Start a two-way sync between a local directory and a project " +
			"on REMOTE.\nIf the remote project is owned by another user, the " +
			"push is refused.",
		Args: cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(args[0], args[1], flags); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	flags.Register(cmd, "The local directory to push. Defaults to the current directory.")
	return cmd
}

func run(host, projectName string, flags util.SyncFlags) error {
	userConfig, coordinator, err := util.Setup()
	if err != nil {
		return err
	}

	opts, err := util.SyncOptions(userConfig, host, projectName, flags, ".")
	if err != nil {
		return err
	}
	return util.RunSync(userConfig, opts, coordinator.Push)
}
