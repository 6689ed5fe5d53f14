package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/shlex"

	"github.com/alexisbeaulieu97/relayprov/internal/resource"
	"github.com/alexisbeaulieu97/relayprov/internal/system"
)

// RunCommand runs an external program. Its guard lives in the paired
// probe; the action only executes.
type RunCommand struct {
	Key     string
	Command system.Command
	Runner  system.Runner
}

var _ Action = (*RunCommand)(nil)

func (a *RunCommand) Resource() resource.ID { return resource.Command(a.Key) }

func (a *RunCommand) Apply(ctx context.Context) error {
	res, err := a.Runner.Run(ctx, a.Command)
	if err != nil {
		return newError(KindExec, a.Resource(), a.Command.Mask(res.PrimaryOutput()), fmt.Errorf("%s: %w", a.Command.String(), err))
	}
	return nil
}

// ParseCommand splits a command line into argv with shell quoting rules
// but without invoking a shell.
func ParseCommand(line string) (system.Command, error) {
	argv, err := shlex.Split(line)
	if err != nil {
		return system.Command{}, fmt.Errorf("parse command %q: %w", line, err)
	}
	if len(argv) == 0 {
		return system.Command{}, fmt.Errorf("empty command")
	}
	return system.Command{Name: argv[0], Args: argv[1:]}, nil
}

// MustParseCommand is ParseCommand for literals known at compile time.
func MustParseCommand(line string) system.Command {
	cmd, err := ParseCommand(line)
	if err != nil {
		panic(err)
	}
	return cmd
}

// ShellCommand runs script through /bin/sh -c, for pipelines such as
// vendor installers that are fetched and piped into bash.
func ShellCommand(script string) system.Command {
	return system.Command{Name: "/bin/sh", Args: []string{"-c", strings.TrimSpace(script)}}
}
