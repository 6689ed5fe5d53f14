package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/relayprov/internal/config"
	"github.com/alexisbeaulieu97/relayprov/internal/profile"
	relayerrors "github.com/alexisbeaulieu97/relayprov/pkg/errors"
)

type targetFlags struct {
	Profile    string
	ConfigPath string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Profile, "profile", "p", "", fmt.Sprintf("Board profile (%s)", strings.Join(profile.Names(), "|")))
	cmd.Flags().StringVarP(&f.ConfigPath, "config", "c", "", "Path to an options file (.yaml or .toml)")
}

// load reads the options file and resolves the profile. The --profile flag
// wins over the file's profile key.
func (f *targetFlags) load() (*config.Options, profile.Profile, error) {
	path := strings.TrimSpace(f.ConfigPath)
	if path != "" {
		if err := validateConfigPath(path); err != nil {
			return nil, profile.Profile{}, err
		}
	}

	opts, err := config.Load(path)
	if err != nil {
		return nil, profile.Profile{}, err
	}

	name := strings.TrimSpace(f.Profile)
	if name == "" {
		name = opts.Profile
	}
	if name == "" {
		return nil, profile.Profile{}, relayerrors.NewValidationError("profile",
			fmt.Sprintf("a profile is required (--profile or profile: in the options file; one of %s)", strings.Join(profile.Names(), ", ")), nil)
	}

	prof, err := profile.Lookup(name)
	if err != nil {
		return nil, profile.Profile{}, relayerrors.NewValidationError("profile", err.Error(), err)
	}
	opts.Profile = prof.Name
	return opts, prof, nil
}

func validateConfigPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return relayerrors.NewValidationError("config", "cannot resolve path", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return relayerrors.NewValidationError("config", fmt.Sprintf("options file %s does not exist", abs), err)
	}
	if info.IsDir() {
		return relayerrors.NewValidationError("config", fmt.Sprintf("options path %s is a directory", abs), nil)
	}
	return nil
}
