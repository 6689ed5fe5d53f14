package system

import (
	"context"
	"fmt"
	"strings"
)

const dpkgInstalled = "install ok installed"

// Apt queries the dpkg database and installs packages with apt-get.
type Apt struct {
	Runner Runner
}

// Installed reports whether the package is fully installed. dpkg-query exits
// non-zero for packages it has never heard of; that is "not installed".
func (a Apt) Installed(ctx context.Context, name string) (bool, error) {
	res, err := a.Runner.Run(ctx, Command{
		Name: "dpkg-query",
		Args: []string{"-W", "-f=${Status}", name},
	})
	if err != nil {
		if IsExitError(err) {
			return false, nil
		}
		return false, fmt.Errorf("query package %s: %w", name, err)
	}
	return strings.Contains(res.Stdout, dpkgInstalled), nil
}

// Update refreshes the package index.
func (a Apt) Update(ctx context.Context) (Result, error) {
	return a.Runner.Run(ctx, Command{
		Name: "apt-get",
		Args: []string{"update"},
		Env:  []string{"DEBIAN_FRONTEND=noninteractive"},
	})
}

// Install installs the named packages non-interactively.
func (a Apt) Install(ctx context.Context, names ...string) (Result, error) {
	args := append([]string{"install", "-y", "--no-install-recommends"}, names...)
	return a.Runner.Run(ctx, Command{
		Name: "apt-get",
		Args: args,
		Env:  []string{"DEBIAN_FRONTEND=noninteractive"},
	})
}
