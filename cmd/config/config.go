package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sidkik/tether/cmd/util"
	"github.com/sidkik/tether/pkg/config"
	"github.com/sidkik/tether/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	writeUserConfig           = config.WriteUser
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Update the tether user configuration",
		Long: "Update the tether user configuration. Only the settings given " +
			"as flags are changed.",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts, cmd.Flags().Changed); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&cliOpts.RemoteRoot, "remote-root", "",
		"The remote directory that holds projects.")
	cmd.Flags().StringVar(&cliOpts.LockStaleAfter, "lock-stale-after", "",
		"How old a lock must be before it's reported as stale, e.g. 24h.")
	cmd.Flags().StringVar(&cliOpts.MutagenPath, "mutagen-path", "",
		"The mutagen binary to use.")
	cmd.Flags().StringArrayVar(&cliOpts.Ignores, "ignore", nil,
		"A path pattern that's never synced. May be repeated.")
	cmd.Flags().StringArrayVar(&cliOpts.SSHOptions, "ssh-option", nil,
		"An ssh -o option, e.g. Port=2222. May be repeated.")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-remote-root",
			short: "Get the remote directory that holds projects",
			fn:    func(cfg config.User) string { return cfg.RemoteRoot },
		},
		{
			use:   "get-ignores",
			short: "Get the path patterns that are never synced",
			fn:    func(cfg config.User) string { return strings.Join(cfg.Ignores, "\n") },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig merges the flags that were set into the existing user config
// and writes it. Registered projects are kept.
func SetupConfig(cliOpts config.User, changed func(string) bool) error {
	cfg, err := parseUserConfig()
	if err != nil {
		return errors.WithContext(err, "read config")
	}

	if changed("remote-root") {
		cfg.RemoteRoot = cliOpts.RemoteRoot
	}
	if changed("lock-stale-after") {
		cfg.LockStaleAfter = cliOpts.LockStaleAfter
		if _, err := cfg.GetLockStaleAfter(); err != nil {
			return err
		}
	}
	if changed("mutagen-path") {
		cfg.MutagenPath = cliOpts.MutagenPath
	}
	if changed("ignore") {
		cfg.Ignores = cliOpts.Ignores
	}
	if changed("ssh-option") {
		cfg.SSHOptions = cliOpts.SSHOptions
	}

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := config.GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}
