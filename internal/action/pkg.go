package action

import (
	"context"
	"sync"

	"github.com/alexisbeaulieu97/relayprov/internal/resource"
	"github.com/alexisbeaulieu97/relayprov/internal/system"
)

// IndexRefresh runs apt-get update at most once per process, the first
// time any package actually needs installing.
type IndexRefresh struct {
	once sync.Once
	res  system.Result
	err  error
}

func (r *IndexRefresh) ensure(ctx context.Context, apt system.Apt) (system.Result, error) {
	r.once.Do(func() {
		r.res, r.err = apt.Update(ctx)
	})
	return r.res, r.err
}

// InstallPackage installs one apt package.
type InstallPackage struct {
	Name    string
	Apt     system.Apt
	Refresh *IndexRefresh
}

var _ Action = (*InstallPackage)(nil)

func (a *InstallPackage) Resource() resource.ID { return resource.Package(a.Name) }

func (a *InstallPackage) Apply(ctx context.Context) error {
	if a.Refresh != nil {
		if res, err := a.Refresh.ensure(ctx, a.Apt); err != nil {
			return newError(KindInstall, a.Resource(), res.PrimaryOutput(), err)
		}
	}
	res, err := a.Apt.Install(ctx, a.Name)
	if err != nil {
		return newError(KindInstall, a.Resource(), res.PrimaryOutput(), err)
	}
	return nil
}
