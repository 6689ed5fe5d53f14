package probe

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/resource"
	"github.com/alexisbeaulieu97/relayprov/pkg/diff"
)

// FileLine checks whether an exact line exists in a file. Trailing
// whitespace is ignored on both sides.
type FileLine struct {
	Path string
	Line string
}

var _ Probe = FileLine{}

func (p FileLine) Resource() resource.ID { return resource.FileLine(p.Path, p.Line) }

func (p FileLine) Check(ctx context.Context) model.ProbeResult {
	id := p.Resource()
	if res, done := cancelled(ctx, id); done {
		return res
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Absent("file does not exist").WithDiff(fmt.Sprintf("+%s", p.Line))
		}
		return failed(id, err)
	}

	want := strings.TrimRight(p.Line, " \t\r")
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.TrimRight(scanner.Text(), " \t\r") == want {
			return model.Present("line present")
		}
	}
	if err := scanner.Err(); err != nil {
		return failed(id, err)
	}
	return model.Absent("line missing").WithDiff(fmt.Sprintf("+%s", p.Line))
}

// FileContent checks that a file holds exactly the desired bytes. The same
// check backs service-unit resources, which differ only in identity.
type FileContent struct {
	Path    string
	Content []byte
	Unit    bool
}

var _ Probe = FileContent{}

func (p FileContent) Resource() resource.ID {
	if p.Unit {
		return resource.ServiceUnit(p.Path)
	}
	return resource.FileContent(p.Path)
}

func (p FileContent) Check(ctx context.Context) model.ProbeResult {
	id := p.Resource()
	if res, done := cancelled(ctx, id); done {
		return res
	}

	current, err := os.ReadFile(p.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Absent("file does not exist").WithDiff(diff.Lines(nil, p.Content, "/dev/null", p.Path))
		}
		return failed(id, err)
	}

	if HashContent(current) == HashContent(p.Content) {
		return model.Present("content matches")
	}
	return model.Absent("content differs").WithDiff(diff.Lines(current, p.Content, p.Path, p.Path+" (desired)"))
}

// Directory checks that a path exists and is a directory.
type Directory struct {
	Path string
}

var _ Probe = Directory{}

func (p Directory) Resource() resource.ID { return resource.Directory(p.Path) }

func (p Directory) Check(ctx context.Context) model.ProbeResult {
	id := p.Resource()
	if res, done := cancelled(ctx, id); done {
		return res
	}

	info, err := os.Stat(p.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Absent("directory does not exist")
		}
		return failed(id, err)
	}
	if !info.IsDir() {
		return failed(id, fmt.Errorf("%s exists and is not a directory", p.Path))
	}
	return model.Present("directory exists")
}

// HashContent returns the hex sha256 of data.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
