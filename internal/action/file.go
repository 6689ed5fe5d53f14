package action

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alexisbeaulieu97/relayprov/internal/resource"
)

const (
	defaultFileMode os.FileMode = 0o644
	defaultDirMode  os.FileMode = 0o755
)

// WriteFile replaces a file with exact content. Readers observe either the
// old file or the new one, never a partial write.
type WriteFile struct {
	Path    string
	Content []byte
	Mode    os.FileMode

	// Unit switches the identity to service-unit for unit files.
	Unit bool

	beforeRename func(tmpPath string) error
}

var _ Action = (*WriteFile)(nil)

func (a *WriteFile) Resource() resource.ID {
	if a.Unit {
		return resource.ServiceUnit(a.Path)
	}
	return resource.FileContent(a.Path)
}

func (a *WriteFile) Apply(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return newError(KindWrite, a.Resource(), "", err)
	}
	mode := a.Mode
	if mode == 0 {
		mode = defaultFileMode
	}
	if err := writeFileAtomic(a.Path, a.Content, mode, a.beforeRename); err != nil {
		return newError(KindWrite, a.Resource(), "", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode, beforeRename func(string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, defaultDirMode); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".relayprov-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if beforeRename != nil {
		if err := beforeRename(tmpName); err != nil {
			os.Remove(tmpName)
			return err
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	// Some filesystems reject fsync on directories; the rename already happened.
	_ = d.Sync()
	return nil
}

// AppendLine appends one line to a file, creating it if needed. Existing
// lines are never rewritten.
type AppendLine struct {
	Path string
	Line string
	Mode os.FileMode
}

var _ Action = (*AppendLine)(nil)

func (a *AppendLine) Resource() resource.ID { return resource.FileLine(a.Path, a.Line) }

func (a *AppendLine) Apply(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return newError(KindWrite, a.Resource(), "", err)
	}
	if err := a.append(); err != nil {
		return newError(KindWrite, a.Resource(), "", err)
	}
	return nil
}

func (a *AppendLine) append() (err error) {
	mode := a.Mode
	if mode == 0 {
		mode = defaultFileMode
	}
	if err := os.MkdirAll(filepath.Dir(a.Path), defaultDirMode); err != nil {
		return err
	}

	f, err := os.OpenFile(a.Path, os.O_RDWR|os.O_APPEND|os.O_CREATE, mode)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	needsNewline, err := lacksTrailingNewline(f)
	if err != nil {
		return err
	}

	buf := make([]byte, 0, len(a.Line)+2)
	if needsNewline {
		buf = append(buf, '\n')
	}
	buf = append(buf, a.Line...)
	buf = append(buf, '\n')

	n, err := f.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("short write to %s: %d of %d bytes", a.Path, n, len(buf))
	}
	return f.Sync()
}

func lacksTrailingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && err != io.EOF {
		return false, err
	}
	return last[0] != '\n', nil
}

// EnsureDirectory creates a directory and any missing parents.
type EnsureDirectory struct {
	Path string
	Mode os.FileMode
}

var _ Action = (*EnsureDirectory)(nil)

func (a *EnsureDirectory) Resource() resource.ID { return resource.Directory(a.Path) }

func (a *EnsureDirectory) Apply(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return newError(KindWrite, a.Resource(), "", err)
	}
	mode := a.Mode
	if mode == 0 {
		mode = defaultDirMode
	}
	if err := os.MkdirAll(a.Path, mode); err != nil {
		return newError(KindWrite, a.Resource(), "", err)
	}
	return nil
}
