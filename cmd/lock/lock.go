package lock

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/buger/goterm"
	"github.com/spf13/cobra"

	"github.com/sidkik/tether/cmd/util"
	"github.com/sidkik/tether/pkg/errors"
	"github.com/sidkik/tether/pkg/lock"
	"github.com/sidkik/tether/pkg/project"
)

// New creates a new `lock` command.
func New() *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect and clear project locks",
	}
	cmd.PersistentFlags().StringVar(&host, "remote", "",
		"The remote host. Defaults to the host the project is synced with.")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status PROJECT",
			Short: "Show who holds the lock on a project",
			Args:  cobra.ExactArgs(1),
			Run: func(_ *cobra.Command, args []string) {
				if err := runStatus(host, args[0]); err != nil {
					util.HandleFatalError(err)
				}
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Show the lock state of every synced project",
			Args:  cobra.NoArgs,
			Run: func(_ *cobra.Command, _ []string) {
				if err := runList(); err != nil {
					util.HandleFatalError(err)
				}
			},
		},
		&cobra.Command{
			Use:   "clear PROJECT",
			Short: "Remove the lock on a project, even if another machine holds it",
			Args:  cobra.ExactArgs(1),
			Run: func(_ *cobra.Command, args []string) {
				if err := runClear(host, args[0]); err != nil {
					util.HandleFatalError(err)
				}
			},
		},
	)
	return cmd
}

func runStatus(host, projectName string) error {
	_, coordinator, err := util.Setup()
	if err != nil {
		return err
	}

	host, err = resolveHost(coordinator, host, projectName)
	if err != nil {
		return err
	}

	printStatuses(os.Stdout, []lock.ProjectStatus{coordinator.LockStatus(host, projectName)},
		time.Now())
	return nil
}

func runList() error {
	_, coordinator, err := util.Setup()
	if err != nil {
		return err
	}

	statuses, err := coordinator.AllLockStatuses()
	if err != nil {
		return err
	}

	if len(statuses) == 0 {
		fmt.Println("No projects are synced.")
		return nil
	}
	printStatuses(os.Stdout, statuses, time.Now())
	return nil
}

func runClear(host, projectName string) error {
	_, coordinator, err := util.Setup()
	if err != nil {
		return err
	}

	host, err = resolveHost(coordinator, host, projectName)
	if err != nil {
		return err
	}

	info, err := coordinator.ClearLock(host, projectName)
	if err != nil {
		return err
	}

	if info == nil {
		fmt.Printf("%s wasn't locked.\n", projectName)
		return nil
	}
	fmt.Printf("Cleared the lock held by %s on %s.\n", info.User, info.Machine)
	return nil
}

func resolveHost(coordinator project.Coordinator, host, projectName string) (string, error) {
	if host != "" {
		return host, nil
	}

	reg, ok, err := coordinator.Registry.Lookup(projectName)
	if err != nil {
		return "", errors.WithContext(err, "lookup project")
	}
	if !ok {
		return "", errors.NewFriendlyError("%q isn't synced by this machine. "+
			"Use --remote to choose the host.", projectName)
	}
	return reg.Remote, nil
}

func printStatuses(out io.Writer, statuses []lock.ProjectStatus, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 10, 3, ' ', 0)
	defer w.Flush()

	// The coloured status goes last. Colour codes would otherwise count
	// toward the column width and push the columns after it out of line.
	fmt.Fprintln(w, "PROJECT\tREMOTE\tHOLDER\tSINCE\tSTATUS")
	for _, status := range statuses {
		holder, since := "", ""
		if status.Info != nil {
			holder = fmt.Sprintf("%s@%s", status.Info.User, status.Info.Machine)
			since = age(*status.Info, now)
			if status.Stale {
				since += " (stale)"
			}
		}
		if status.Err != nil {
			holder = status.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", status.Project, status.Host,
			holder, since, classString(status.Class))
	}
}

func classString(class lock.Class) string {
	color := goterm.GREEN
	switch class {
	case lock.LockedByOther:
		color = goterm.RED
	case lock.Unknown:
		color = goterm.YELLOW
	case lock.LockedByMe:
		color = goterm.BLUE
	}
	return goterm.Color(class.String(), color)
}

func age(info lock.Info, now time.Time) string {
	acquiredAt, err := info.AcquiredAt()
	if err != nil {
		return info.Timestamp
	}
	return now.Sub(acquiredAt).Truncate(time.Minute).String() + " ago"
}
