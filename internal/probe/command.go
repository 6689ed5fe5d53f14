package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/resource"
	"github.com/alexisbeaulieu97/relayprov/internal/system"
)

// Command decides whether an external command still needs to run. Exactly
// one guard is used: Creates (a path the command produces) or CheckCommand
// (a command that exits zero once converged).
type Command struct {
	Key          string
	Creates      string
	CheckCommand *system.Command
	Runner       system.Runner
}

var _ Probe = Command{}

func (p Command) Resource() resource.ID { return resource.Command(p.Key) }

func (p Command) Check(ctx context.Context) model.ProbeResult {
	id := p.Resource()
	if res, done := cancelled(ctx, id); done {
		return res
	}

	switch {
	case p.Creates != "":
		if _, err := os.Stat(p.Creates); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return model.Absent(p.Creates + " does not exist")
			}
			return failed(id, err)
		}
		return model.Present(p.Creates + " exists")
	case p.CheckCommand != nil:
		if p.Runner == nil {
			return failed(id, errors.New("check command configured without a runner"))
		}
		res, err := p.Runner.Run(ctx, *p.CheckCommand)
		if err == nil {
			return model.Present("check succeeded")
		}
		if system.IsExitError(err) {
			return model.Absent(fmt.Sprintf("check exited %d", res.ExitCode))
		}
		return failed(id, fmt.Errorf("run check %q: %w", p.CheckCommand.String(), err))
	default:
		return model.Absent("no guard configured")
	}
}
