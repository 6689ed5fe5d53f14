package action

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/relayprov/internal/system"
	"github.com/alexisbeaulieu97/relayprov/internal/testutil/fakerunner"
)

func TestInstallPackageCapturesStderr(t *testing.T) {
	t.Parallel()

	fake := fakerunner.New().
		On("apt-get install", system.Result{Stderr: "E: Unable to locate package gstreamer1.0-libcamera"}, fakerunner.Exit(100))

	a := &InstallPackage{Name: "gstreamer1.0-libcamera", Apt: system.Apt{Runner: fake}}
	err := a.Apply(context.Background())
	require.Error(t, err)

	var actErr *Error
	require.True(t, errors.As(err, &actErr))
	require.Equal(t, KindInstall, actErr.Kind)
	require.Contains(t, actErr.Stderr, "Unable to locate package")
	require.Contains(t, err.Error(), "Unable to locate package")
}

func TestInstallPackageRefreshesIndexOnce(t *testing.T) {
	t.Parallel()

	fake := fakerunner.New()
	apt := system.Apt{Runner: fake}
	refresh := &IndexRefresh{}

	require.NoError(t, (&InstallPackage{Name: "git", Apt: apt, Refresh: refresh}).Apply(context.Background()))
	require.NoError(t, (&InstallPackage{Name: "curl", Apt: apt, Refresh: refresh}).Apply(context.Background()))

	require.Equal(t, []string{
		"apt-get update",
		"apt-get install -y --no-install-recommends git",
		"apt-get install -y --no-install-recommends curl",
	}, fake.Calls())
}

func TestInstallUnitStages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		failOn    string
		wantKind  ErrorKind
		wantCalls []string
	}{
		{
			name:   "all stages succeed",
			failOn: "",
			wantCalls: []string{
				"systemctl daemon-reload",
				"systemctl enable rtsp-stream.service",
				"systemctl restart rtsp-stream.service",
			},
		},
		{
			name:      "reload failure stops before enable",
			failOn:    "systemctl daemon-reload",
			wantKind:  KindReload,
			wantCalls: []string{"systemctl daemon-reload"},
		},
		{
			name:      "enable failure",
			failOn:    "systemctl enable",
			wantKind:  KindEnable,
			wantCalls: []string{"systemctl daemon-reload", "systemctl enable rtsp-stream.service"},
		},
		{
			name:     "start failure",
			failOn:   "systemctl restart",
			wantKind: KindStart,
			wantCalls: []string{
				"systemctl daemon-reload",
				"systemctl enable rtsp-stream.service",
				"systemctl restart rtsp-stream.service",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := fakerunner.New()
			if tt.failOn != "" {
				fake.On(tt.failOn, system.Result{Stderr: "boom"}, fakerunner.Exit(1))
			}

			path := filepath.Join(t.TempDir(), "rtsp-stream.service")
			a := &InstallUnit{
				Path:      path,
				Unit:      "rtsp-stream.service",
				Content:   []byte("[Unit]\nDescription=RTSP\n"),
				Systemctl: system.Systemctl{Runner: fake},
			}

			err := a.Apply(context.Background())
			require.Equal(t, tt.wantCalls, fake.Calls())

			got, readErr := os.ReadFile(path)
			require.NoError(t, readErr)
			require.Equal(t, "[Unit]\nDescription=RTSP\n", string(got))

			if tt.wantKind == "" {
				require.NoError(t, err)
				return
			}
			var actErr *Error
			require.True(t, errors.As(err, &actErr))
			require.Equal(t, tt.wantKind, actErr.Kind)
			require.Equal(t, "boom", actErr.Stderr)
		})
	}
}

func TestInstallUnitBootOnly(t *testing.T) {
	t.Parallel()

	fake := fakerunner.New()
	a := &InstallUnit{
		Path:      filepath.Join(t.TempDir(), "lte-modem.service"),
		Unit:      "lte-modem.service",
		Content:   []byte("[Unit]\n"),
		Systemctl: system.Systemctl{Runner: fake},
		BootOnly:  true,
	}
	require.NoError(t, a.Apply(context.Background()))
	require.Equal(t, []string{"systemctl daemon-reload", "systemctl enable lte-modem.service"}, fake.Calls())

	enable := &EnableService{Unit: "lte-modem.service", Systemctl: system.Systemctl{Runner: fake}, BootOnly: true}
	require.NoError(t, enable.Apply(context.Background()))
	require.False(t, fake.CalledWith("systemctl start"))
}

func TestEnableService(t *testing.T) {
	t.Parallel()

	fake := fakerunner.New().On("systemctl start", system.Result{Stderr: "Job failed"}, fakerunner.Exit(1))
	err := (&EnableService{Unit: "zerotier-one.service", Systemctl: system.Systemctl{Runner: fake}}).Apply(context.Background())

	require.ErrorIs(t, err, &Error{Kind: KindStart})
	require.Equal(t, []string{"systemctl enable zerotier-one.service", "systemctl start zerotier-one.service"}, fake.Calls())
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	fake := fakerunner.New().On("ninja -C build install", system.Result{Stderr: "ninja: error: loading 'build.ninja'"}, fakerunner.Exit(1))

	ok := &RunCommand{Key: "configure", Command: MustParseCommand("meson setup build ."), Runner: fake}
	require.NoError(t, ok.Apply(context.Background()))

	bad := &RunCommand{Key: "install", Command: MustParseCommand("ninja -C build install"), Runner: fake}
	err := bad.Apply(context.Background())
	require.ErrorIs(t, err, &Error{Kind: KindExec})
	require.Contains(t, err.Error(), "loading 'build.ninja'")
}

func TestRunCommandKeepsSecretsOutOfErrors(t *testing.T) {
	t.Parallel()

	fake := fakerunner.New().On("tailscale up", system.Result{Stderr: "backend error: invalid key tskey-SECRET123"}, fakerunner.Exit(1))
	cmd := system.Command{Name: "tailscale", Args: []string{"up", "--authkey=tskey-SECRET123"}, Secrets: []string{"tskey-SECRET123"}}

	err := (&RunCommand{Key: "tailscale-up", Command: cmd, Runner: fake}).Apply(context.Background())
	require.ErrorIs(t, err, &Error{Kind: KindExec})
	require.NotContains(t, err.Error(), "tskey-SECRET123")
	require.Contains(t, err.Error(), "--authkey=[REDACTED]")
	require.Contains(t, err.Error(), "backend error")

	// The real argv still carries the key.
	require.Equal(t, "--authkey=tskey-SECRET123", fake.Commands()[0].Args[1])
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`qmicli -d /dev/cdc-wdm0 --wds-start-network="apn='internet',ip-type=4"`)
	require.NoError(t, err)
	require.Equal(t, "qmicli", cmd.Name)
	require.Equal(t, []string{"-d", "/dev/cdc-wdm0", "--wds-start-network=apn='internet',ip-type=4"}, cmd.Args)

	_, err = ParseCommand("   ")
	require.Error(t, err)

	_, err = ParseCommand(`echo "unterminated`)
	require.Error(t, err)
}

func TestShellCommand(t *testing.T) {
	t.Parallel()

	cmd := ShellCommand("  curl -s https://install.zerotier.com | bash ")
	require.Equal(t, "/bin/sh", cmd.Name)
	require.Equal(t, []string{"-c", "curl -s https://install.zerotier.com | bash"}, cmd.Args)
}

func TestCloneRepository(t *testing.T) {
	source := initGitRepo(t)
	dest := filepath.Join(t.TempDir(), "src", "mavlink-router")

	a := &CloneRepository{Path: dest, URL: source}
	require.NoError(t, a.Apply(context.Background()))

	contents, err := os.ReadFile(filepath.Join(dest, "README.md"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "hello relay")
}

func TestCloneRepositoryFailureCleansUp(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "clone")

	a := &CloneRepository{Path: dest, URL: filepath.Join(t.TempDir(), "does-not-exist")}
	err := a.Apply(context.Background())
	require.ErrorIs(t, err, &Error{Kind: KindClone})

	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr))
}

func initGitRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello relay"), 0o644))
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "relayprov",
			Email: "relayprov@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir
}
