package action

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/alexisbeaulieu97/relayprov/internal/resource"
)

// CloneRepository clones a git repository, including submodules when
// requested. A failed clone removes whatever it left behind so the next
// run sees the checkout as absent rather than corrupt.
type CloneRepository struct {
	Path       string
	URL        string
	Branch     string
	Depth      int
	Submodules bool
	Progress   io.Writer
}

var _ Action = (*CloneRepository)(nil)

func (a *CloneRepository) Resource() resource.ID { return resource.Repository(a.Path) }

func (a *CloneRepository) Apply(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(a.Path), defaultDirMode); err != nil {
		return newError(KindClone, a.Resource(), "", err)
	}

	preexisting := true
	if _, err := os.Stat(a.Path); errors.Is(err, fs.ErrNotExist) {
		preexisting = false
	}

	opts := &git.CloneOptions{
		URL:      a.URL,
		Progress: a.Progress,
	}
	if a.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(a.Branch)
		opts.SingleBranch = true
	}
	if a.Depth > 0 {
		opts.Depth = a.Depth
	}
	if a.Submodules {
		opts.RecurseSubmodules = git.DefaultSubmoduleRecursionDepth
	}

	if _, err := git.PlainCloneContext(ctx, a.Path, false, opts); err != nil {
		if !preexisting {
			_ = os.RemoveAll(a.Path)
		} else {
			_ = os.RemoveAll(filepath.Join(a.Path, ".git"))
		}
		return newError(KindClone, a.Resource(), "", fmt.Errorf("clone %s: %w", a.URL, err))
	}
	return nil
}
