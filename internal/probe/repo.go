package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	git "github.com/go-git/go-git/v5"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/resource"
)

// Repository checks that Path is a git checkout whose origin is URL.
type Repository struct {
	Path string
	URL  string
}

var _ Probe = Repository{}

func (p Repository) Resource() resource.ID { return resource.Repository(p.Path) }

func (p Repository) Check(ctx context.Context) model.ProbeResult {
	id := p.Resource()
	if res, done := cancelled(ctx, id); done {
		return res
	}

	if _, err := os.Stat(p.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Absent("checkout does not exist").WithDiff(fmt.Sprintf("Would clone %s into %s", p.URL, p.Path))
		}
		return failed(id, err)
	}

	repo, err := git.PlainOpen(p.Path)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			entries, readErr := os.ReadDir(p.Path)
			if readErr == nil && len(entries) == 0 {
				return model.Absent("checkout directory is empty")
			}
			return failed(id, fmt.Errorf("%s exists but is not a git repository", p.Path))
		}
		return failed(id, fmt.Errorf("open repository: %w", err))
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return failed(id, fmt.Errorf("read origin remote: %w", err))
	}
	urls := remote.Config().URLs
	if len(urls) == 0 || urls[0] != p.URL {
		actual := ""
		if len(urls) > 0 {
			actual = urls[0]
		}
		return failed(id, fmt.Errorf("origin is %q, expected %q", actual, p.URL))
	}
	return model.Present("checkout present")
}
