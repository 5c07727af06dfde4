package version

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/tether/cmd/util"
	"github.com/sidkik/tether/pkg/config"
	"github.com/sidkik/tether/pkg/syncengine"
	"github.com/sidkik/tether/pkg/version"
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of tether and the sync engine.",
		Run: func(_ *cobra.Command, args []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	fmt.Printf("tether version:  %s\n", version.Version)

	mutagenPath := ""
	if userConfig, err := config.ParseUser(); err == nil {
		mutagenPath = userConfig.MutagenPath
	} else {
		log.WithError(err).Debugf("Failed to parse %s. Using the default mutagen.",
			config.UserConfigPath)
	}

	engineVersion, err := syncengine.NewMutagen(mutagenPath).CheckVersion()
	if engineVersion != nil {
		fmt.Printf("mutagen version: %s\n", engineVersion)
	}
	return err
}
