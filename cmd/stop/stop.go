package stop

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidkik/tether/cmd/util"
	"github.com/sidkik/tether/pkg/project"
)

// New creates a new `stop` command.
func New() *cobra.Command {
	var opts project.StopOptions
	cmd := &cobra.Command{
		Use:   "stop PROJECT",
		Short: "Stop syncing a project and release its lock",
		Long: "Stop syncing a project and release its lock.\n\n" +
			"A project whose first sync failed isn't registered yet. Pass " +
			"--remote, and --sub-path if it used selective sync, to stop it.",
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(args[0], opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&opts.Force, "force", false,
		"Stop even if the project is owned by someone else, or its sessions "+
			"or lock can't be cleaned up. A lock held by another machine is "+
			"never removed. Use `tether lock clear` for that.")
	cmd.Flags().StringVar(&opts.Host, "remote", "",
		"The remote host of a project that isn't registered")
	cmd.Flags().StringArrayVar(&opts.SubPaths, "sub-path", nil,
		"A sub-path of a project that isn't registered. May be repeated.")
	return cmd
}

func run(projectName string, opts project.StopOptions) error {
	_, coordinator, err := util.Setup()
	if err != nil {
		return err
	}

	if err := coordinator.Stop(projectName, opts); err != nil {
		return err
	}
	fmt.Printf("Stopped syncing %s.\n", projectName)
	return nil
}
