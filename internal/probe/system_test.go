package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/system"
	"github.com/alexisbeaulieu97/relayprov/internal/testutil/fakerunner"
)

func TestPackageProbe(t *testing.T) {
	t.Parallel()

	fake := fakerunner.New().
		On("dpkg-query -W -f=${Status} git", system.Result{Stdout: "install ok installed"}, nil).
		On("dpkg-query -W -f=${Status} meson", system.Result{}, fakerunner.Exit(1)).
		On("dpkg-query -W -f=${Status} broken", system.Result{}, errors.New("fork/exec: no such file"))
	apt := system.Apt{Runner: fake}

	require.Equal(t, model.StatePresent, Package{Name: "git", Apt: apt}.Check(context.Background()).State)

	absent := Package{Name: "meson", Apt: apt}.Check(context.Background())
	require.Equal(t, model.StateAbsent, absent.State)
	require.Equal(t, "Would install: meson", absent.Diff)

	require.Equal(t, model.StateError, Package{Name: "broken", Apt: apt}.Check(context.Background()).State)
}

func TestServiceStateProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		enabledErr error
		activeErr  error
		want       model.ProbeState
		reason     string
	}{
		{"enabled and active", nil, nil, model.StatePresent, "enabled and active"},
		{"inactive", nil, fakerunner.Exit(3), model.StateAbsent, "not active"},
		{"disabled and inactive", fakerunner.Exit(1), fakerunner.Exit(3), model.StateAbsent, "not enabled, not active"},
		{"systemctl missing", errors.New("not found"), nil, model.StateError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := fakerunner.New().
				On("systemctl is-enabled", system.Result{}, tt.enabledErr).
				On("systemctl is-active", system.Result{}, tt.activeErr)

			res := ServiceState{Unit: "mavlink-router.service", Systemctl: system.Systemctl{Runner: fake}}.Check(context.Background())
			require.Equal(t, tt.want, res.State)
			if tt.reason != "" {
				require.Equal(t, tt.reason, res.Reason)
			}
		})
	}
}

func TestServiceStateBootOnly(t *testing.T) {
	t.Parallel()

	fake := fakerunner.New().On("systemctl is-active", system.Result{}, fakerunner.Exit(3))
	p := ServiceState{Unit: "lte-modem.service", Systemctl: system.Systemctl{Runner: fake}, BootOnly: true}

	require.Equal(t, model.StatePresent, p.Check(context.Background()).State)
	require.False(t, fake.CalledWith("systemctl is-active"))

	fake.On("systemctl is-enabled", system.Result{}, fakerunner.Exit(1))
	require.Equal(t, model.StateAbsent, p.Check(context.Background()).State)
}

func TestCommandProbe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	created := filepath.Join(dir, "mavlink-routerd")

	t.Run("creates guard", func(t *testing.T) {
		t.Parallel()
		p := Command{Key: "build", Creates: created}
		require.Equal(t, model.StateAbsent, p.Check(context.Background()).State)
	})

	t.Run("check guard", func(t *testing.T) {
		t.Parallel()
		fake := fakerunner.New().
			On("zerotier-cli listnetworks", system.Result{}, fakerunner.Exit(1)).
			On("tailscale status", system.Result{}, nil)

		zt := Command{Key: "zt-join", CheckCommand: &system.Command{Name: "zerotier-cli", Args: []string{"listnetworks"}}, Runner: fake}
		require.Equal(t, model.StateAbsent, zt.Check(context.Background()).State)

		ts := Command{Key: "ts-up", CheckCommand: &system.Command{Name: "tailscale", Args: []string{"status"}}, Runner: fake}
		require.Equal(t, model.StatePresent, ts.Check(context.Background()).State)
	})

	t.Run("check without runner", func(t *testing.T) {
		t.Parallel()
		p := Command{Key: "x", CheckCommand: &system.Command{Name: "true"}}
		require.Equal(t, model.StateError, p.Check(context.Background()).State)
	})
}

func TestCommandProbeCreatesExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bin")
	require.NoError(t, os.WriteFile(path, nil, 0o755))
	require.Equal(t, model.StatePresent, Command{Key: "k", Creates: path}.Check(context.Background()).State)
}

func TestRepositoryProbe(t *testing.T) {
	t.Parallel()

	const url = "https://github.com/mavlink-router/mavlink-router.git"
	dir := t.TempDir()

	missing := Repository{Path: filepath.Join(dir, "missing"), URL: url}.Check(context.Background())
	require.Equal(t, model.StateAbsent, missing.State)

	checkout := filepath.Join(dir, "mavlink-router")
	repo, err := git.PlainInit(checkout, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{url}})
	require.NoError(t, err)

	require.Equal(t, model.StatePresent, Repository{Path: checkout, URL: url}.Check(context.Background()).State)
	require.Equal(t, model.StateError, Repository{Path: checkout, URL: "https://example.com/other.git"}.Check(context.Background()).State)

	notRepo := filepath.Join(dir, "plain")
	require.NoError(t, os.MkdirAll(notRepo, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(notRepo, "README"), nil, 0o644))
	require.Equal(t, model.StateError, Repository{Path: notRepo, URL: url}.Check(context.Background()).State)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))
	require.Equal(t, model.StateAbsent, Repository{Path: empty, URL: url}.Check(context.Background()).State)
}
