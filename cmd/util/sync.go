package util

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/tether/pkg/config"
	"github.com/sidkik/tether/pkg/errors"
	"github.com/sidkik/tether/pkg/project"
	"github.com/sidkik/tether/pkg/session"
	"github.com/sidkik/tether/pkg/syncengine"
)

// SyncFlags are the flags shared by `clone` and `push`.
type SyncFlags struct {
	LocalDir   string
	RemotePath string
	SubPaths   []string
}

// Register adds the flags to `cmd`.
func (f *SyncFlags) Register(cmd *cobra.Command, localDirHelp string) {
	cmd.Flags().StringVar(&f.LocalDir, "local", "", localDirHelp)
	cmd.Flags().StringVar(&f.RemotePath, "remote-path", "",
		"The project directory on the remote host. Defaults to PROJECT "+
			"within the remoteRoot of the tether config.")
	cmd.Flags().StringArrayVar(&f.SubPaths, "sub", nil,
		"Only sync this sub-directory of the project. May be repeated.")
}

// SyncOptions resolves the options for syncing `projectName` on `host`.
// Unless a local directory was given, `defaultLocalDir` is used.
func SyncOptions(userConfig config.User, host, projectName string, flags SyncFlags,
	defaultLocalDir string) (project.Options, error) {
	if err := config.ValidateProjectName(projectName); err != nil {
		return project.Options{}, err
	}

	localDir := flags.LocalDir
	if localDir == "" {
		localDir = defaultLocalDir
	}

	localDir, err := homedir.Expand(localDir)
	if err != nil {
		return project.Options{}, errors.WithContext(err, "expand local path")
	}

	localDir, err = filepath.Abs(localDir)
	if err != nil {
		return project.Options{}, errors.WithContext(err, "get absolute path")
	}

	projectConfig, err := config.ParseProjectConfig(localDir)
	if err != nil {
		return project.Options{}, errors.WithContext(err, "parse project config")
	}

	subPaths := projectConfig.SubPaths
	if len(flags.SubPaths) != 0 {
		subPaths = nil
		for _, subPath := range flags.SubPaths {
			cleaned, err := config.CleanSubPath(subPath)
			if err != nil {
				return project.Options{}, err
			}
			subPaths = append(subPaths, cleaned)
		}
	}

	remotePath := flags.RemotePath
	if remotePath == "" {
		remotePath = path.Join(userConfig.RemoteRoot, projectName)
	}

	return project.Options{
		Host:       host,
		Project:    projectName,
		RemotePath: remotePath,
		LocalPath:  localDir,
		SubPaths:   subPaths,
		Ignores:    append(append([]string{}, userConfig.Ignores...), projectConfig.Ignores...),
	}, nil
}

// RunSync checks the sync engine and then runs `sync` while showing the
// engine's progress.
func RunSync(userConfig config.User, opts project.Options,
	sync func(project.Options) (session.Result, error)) error {
	engineVersion, err := syncengine.NewMutagen(userConfig.MutagenPath).CheckVersion()
	if err != nil {
		return err
	}
	log.WithField("version", engineVersion).Debug("Found mutagen")

	pp := NewProgressPrinter(os.Stdout, fmt.Sprintf("Syncing %s with %s", opts.Project, opts.Host))
	opts.OnProgress = pp.Update
	go pp.Run()

	res, err := sync(opts)
	pp.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("%s is synced to %s:%s (%s).\n", opts.Project, opts.Host, opts.RemotePath,
		strings.Join(res.Sessions, ", "))
	fmt.Printf("Run `tether stop %s` to stop syncing.\n", opts.Project)
	return nil
}
