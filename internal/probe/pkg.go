package probe

import (
	"context"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/resource"
	"github.com/alexisbeaulieu97/relayprov/internal/system"
)

// Package checks the dpkg database for an installed package.
type Package struct {
	Name string
	Apt  system.Apt
}

var _ Probe = Package{}

func (p Package) Resource() resource.ID { return resource.Package(p.Name) }

func (p Package) Check(ctx context.Context) model.ProbeResult {
	id := p.Resource()
	if res, done := cancelled(ctx, id); done {
		return res
	}

	installed, err := p.Apt.Installed(ctx, p.Name)
	if err != nil {
		return failed(id, err)
	}
	if installed {
		return model.Present("package installed")
	}
	return model.Absent("package not installed").WithDiff("Would install: " + p.Name)
}
