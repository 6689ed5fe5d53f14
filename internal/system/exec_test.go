package system

import (
	"bytes"
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_Success(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell assumptions do not hold on Windows")
	}

	res, err := ExecRunner{}.Run(context.Background(), Command{Name: "echo", Args: []string{"hello world"}})
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Stdout)
	assert.Equal(t, "", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecRunner_CapturesStderrOnFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell assumptions do not hold on Windows")
	}

	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo 'error message' >&2; exit 3"},
	})
	require.Error(t, err)
	assert.True(t, IsExitError(err))
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "error message", res.Stderr)
	assert.Equal(t, "error message", res.PrimaryOutput())
}

func TestExecRunner_MissingBinary(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Command{Name: "definitely-not-a-real-binary-xyz"})
	require.Error(t, err)
	assert.False(t, IsExitError(err))
	assert.Equal(t, 127, res.ExitCode)
}

func TestExecRunner_EchoMirrorsOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell assumptions do not hold on Windows")
	}

	var echo bytes.Buffer
	res, err := ExecRunner{Echo: &echo}.Run(context.Background(), Command{Name: "echo", Args: []string{"piped"}})
	require.NoError(t, err)
	assert.Equal(t, "piped", res.Stdout)
	assert.Equal(t, "piped\n", echo.String())
}

func TestExecRunner_PassesEnvAndDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell assumptions do not hold on Windows")
	}

	dir := t.TempDir()
	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo $RELAY_TEST; pwd"},
		Env:  []string{"RELAY_TEST=ok"},
		Dir:  dir,
	})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "ok")
	assert.Contains(t, res.Stdout, dir)
}

func TestCommandStringMasksSecrets(t *testing.T) {
	t.Parallel()

	cmd := Command{Name: "tailscale", Args: []string{"up", "--authkey=tskey-SECRET123"}, Secrets: []string{"tskey-SECRET123", ""}}
	assert.Equal(t, "tailscale up --authkey=[REDACTED]", cmd.String())
	assert.Equal(t, "backend rejected [REDACTED]", cmd.Mask("backend rejected tskey-SECRET123"))
	assert.Equal(t, "tailscale status", Command{Name: "tailscale", Args: []string{"status"}}.String())
}
