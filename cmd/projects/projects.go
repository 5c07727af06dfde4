package projects

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sidkik/tether/cmd/util"
	"github.com/sidkik/tether/pkg/config"
	"github.com/sidkik/tether/pkg/errors"
)

// New creates a new `projects` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects synced by this machine",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	regs, err := config.Registrar{}.List()
	if err != nil {
		return errors.WithContext(err, "list projects")
	}

	if len(regs) == 0 {
		fmt.Println("No projects are synced. Run `tether clone` or `tether push` to start.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 10, 3, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "PROJECT\tREMOTE\tLOCAL\tSUB-PATHS")
	for _, reg := range regs {
		fmt.Fprintf(w, "%s\t%s:%s\t%s\t%s\n", reg.Project, reg.Remote, reg.RemotePath,
			reg.LocalPath, strings.Join(reg.SubPaths, ","))
	}
	return nil
}
