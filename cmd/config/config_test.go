package config

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/tether/pkg/config"
)

func TestSetupConfig(t *testing.T) {
	existing := config.User{
		Version:    config.SupportedUserConfigVersion,
		RemoteRoot: "~/tether",
		Ignores:    []string{"node_modules"},
		Projects:   []config.Registration{{Project: "myapp", Remote: "myserver"}},
	}

	tests := []struct {
		name     string
		cliOpts  config.User
		changed  []string
		exp      config.User
		expError bool
	}{
		{
			name:    "NothingChanged",
			cliOpts: config.User{RemoteRoot: "ignored"},
			exp:     existing,
		},
		{
			name: "RemoteRootAndSSH",
			cliOpts: config.User{
				RemoteRoot: "/srv/dev",
				SSHOptions: []string{"Port=2222"},
			},
			changed: []string{"remote-root", "ssh-option"},
			exp: config.User{
				Version:    config.SupportedUserConfigVersion,
				RemoteRoot: "/srv/dev",
				Ignores:    []string{"node_modules"},
				SSHOptions: []string{"Port=2222"},
				Projects:   existing.Projects,
			},
		},
		{
			name:    "ClearIgnores",
			changed: []string{"ignore"},
			exp: config.User{
				Version:    config.SupportedUserConfigVersion,
				RemoteRoot: "~/tether",
				Projects:   existing.Projects,
			},
		},
		{
			name:     "BadStaleAfter",
			cliOpts:  config.User{LockStaleAfter: "forever"},
			changed:  []string{"lock-stale-after"},
			expError: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var written *config.User
			parseUserConfig = func() (config.User, error) {
				cfg := existing
				return cfg, nil
			}
			writeUserConfig = func(cfg config.User) error {
				written = &cfg
				return nil
			}
			var out bytes.Buffer
			stdout = &out

			changed := func(flag string) bool {
				for _, c := range test.changed {
					if c == flag {
						return true
					}
				}
				return false
			}

			err := SetupConfig(test.cliOpts, changed)
			if test.expError {
				assert.Error(t, err)
				assert.Nil(t, written)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, written)
			assert.Equal(t, test.exp, *written)
			assert.Contains(t, out.String(), "Wrote config to")
		})
	}
}
