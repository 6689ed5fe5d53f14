package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/resource"
)

func TestFileLine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nenable_uart=1   \ndtoverlay=disable-bt"), 0o644))

	tests := []struct {
		name string
		path string
		line string
		want model.ProbeState
	}{
		{"line present with trailing spaces", path, "enable_uart=1", model.StatePresent},
		{"last line without newline", path, "dtoverlay=disable-bt", model.StatePresent},
		{"line missing", path, "dtoverlay=disable-wifi", model.StateAbsent},
		{"partial match is absent", path, "enable_uart", model.StateAbsent},
		{"missing file is absent", filepath.Join(dir, "nope.txt"), "x", model.StateAbsent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := FileLine{Path: tt.path, Line: tt.line}.Check(context.Background())
			require.Equal(t, tt.want, res.State, res.Reason)
			require.NoError(t, res.Err)
		})
	}
}

func TestFileLineUnreadableIsError(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission checks need a non-root POSIX user")
	}

	path := filepath.Join(t.TempDir(), "secret.conf")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o000))

	res := FileLine{Path: path, Line: "x"}.Check(context.Background())
	require.Equal(t, model.StateError, res.State)

	var probeErr *Error
	require.True(t, errors.As(res.Err, &probeErr))
	require.Equal(t, resource.FileLine(path, "x"), probeErr.Resource)
}

func TestFileContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "main.conf")
	desired := []byte("[General]\nTcpServerPort = 5760\n")

	res := FileContent{Path: path, Content: desired}.Check(context.Background())
	require.Equal(t, model.StateAbsent, res.State)
	require.Contains(t, res.Diff, "+TcpServerPort = 5760")

	require.NoError(t, os.WriteFile(path, []byte("[General]\nTcpServerPort = 5761\n"), 0o644))
	res = FileContent{Path: path, Content: desired}.Check(context.Background())
	require.Equal(t, model.StateAbsent, res.State)
	require.Contains(t, res.Diff, "-TcpServerPort = 5761")
	require.Contains(t, res.Diff, "+TcpServerPort = 5760")

	require.NoError(t, os.WriteFile(path, desired, 0o644))
	res = FileContent{Path: path, Content: desired}.Check(context.Background())
	require.Equal(t, model.StatePresent, res.State)
	require.Empty(t, res.Diff)
}

func TestFileContentUnitIdentity(t *testing.T) {
	t.Parallel()

	p := FileContent{Path: "/etc/systemd/system/rtsp-stream.service", Unit: true}
	require.Equal(t, resource.KindServiceUnit, p.Resource().Kind)

	p.Unit = false
	require.Equal(t, resource.KindFileContent, p.Resource().Kind)
}

func TestDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	require.Equal(t, model.StatePresent, Directory{Path: dir}.Check(context.Background()).State)
	require.Equal(t, model.StateAbsent, Directory{Path: filepath.Join(dir, "sub")}.Check(context.Background()).State)
	require.Equal(t, model.StateError, Directory{Path: file}.Check(context.Background()).State)
}

func TestCancelledContextIsError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Directory{Path: t.TempDir()}.Check(ctx)
	require.Equal(t, model.StateError, res.State)
	require.ErrorIs(t, res.Err, context.Canceled)
}

func TestHashContent(t *testing.T) {
	t.Parallel()

	require.Equal(t, HashContent([]byte("a")), HashContent([]byte("a")))
	require.NotEqual(t, HashContent([]byte("a")), HashContent([]byte("b")))
	require.Len(t, HashContent(nil), 64)
}
