package owner

import (
	"fmt"

	"github.com/buger/goterm"
	"github.com/spf13/cobra"

	"github.com/sidkik/tether/cmd/util"
	"github.com/sidkik/tether/pkg/ownership"
)

// New creates a new `owner` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "owner PROJECT",
		Short: "Show who owns a synced project",
		Long: "Show who owns a synced project. Only the owner may push to " +
			"it or stop it without --force.",
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(args[0]); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(projectName string) error {
	_, coordinator, err := util.Setup()
	if err != nil {
		return err
	}

	reg, status, err := coordinator.Owner(projectName)
	if err != nil {
		return err
	}
	fmt.Printf("%s:%s\n%s\n", reg.Remote, reg.RemotePath, describe(status))
	return nil
}

func describe(status ownership.Status) string {
	switch {
	case !status.HasOwner:
		return goterm.Color("No owner is recorded. Anyone may push.", goterm.YELLOW)
	case status.IsOwner:
		return goterm.Color(fmt.Sprintf("Owned by you (%s on %s, since %s).",
			status.Info.Owner, status.Info.Machine, status.Info.Created), goterm.GREEN)
	default:
		return goterm.Color(fmt.Sprintf("Owned by %s on %s, since %s.",
			status.Info.Owner, status.Info.Machine, status.Info.Created), goterm.RED)
	}
}
