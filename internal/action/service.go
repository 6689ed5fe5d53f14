package action

import (
	"context"
	"os"

	"github.com/alexisbeaulieu97/relayprov/internal/resource"
	"github.com/alexisbeaulieu97/relayprov/internal/system"
)

// InstallUnit writes a systemd unit file, reloads the unit cache, enables
// the unit and (re)starts it. Each stage fails with its own ErrorKind.
type InstallUnit struct {
	Path      string
	Unit      string
	Content   []byte
	Systemctl system.Systemctl

	// BootOnly enables the unit without starting it now.
	BootOnly bool

	write WriteFile
}

var _ Action = (*InstallUnit)(nil)

func (a *InstallUnit) Resource() resource.ID { return resource.ServiceUnit(a.Path) }

func (a *InstallUnit) Apply(ctx context.Context) error {
	a.write.Path = a.Path
	a.write.Content = a.Content
	a.write.Mode = os.FileMode(0o644)
	a.write.Unit = true
	if err := a.write.Apply(ctx); err != nil {
		return err
	}

	if res, err := a.Systemctl.DaemonReload(ctx); err != nil {
		return newError(KindReload, a.Resource(), res.PrimaryOutput(), err)
	}
	if res, err := a.Systemctl.Enable(ctx, a.Unit); err != nil {
		return newError(KindEnable, a.Resource(), res.PrimaryOutput(), err)
	}
	if a.BootOnly {
		return nil
	}
	if res, err := a.Systemctl.Restart(ctx, a.Unit); err != nil {
		return newError(KindStart, a.Resource(), res.PrimaryOutput(), err)
	}
	return nil
}

// EnableService enables and starts a unit that already exists, such as one
// shipped by a package.
type EnableService struct {
	Unit      string
	Systemctl system.Systemctl
	BootOnly  bool
}

var _ Action = (*EnableService)(nil)

func (a *EnableService) Resource() resource.ID { return resource.ServiceState(a.Unit) }

func (a *EnableService) Apply(ctx context.Context) error {
	if res, err := a.Systemctl.Enable(ctx, a.Unit); err != nil {
		return newError(KindEnable, a.Resource(), res.PrimaryOutput(), err)
	}
	if a.BootOnly {
		return nil
	}
	if res, err := a.Systemctl.Start(ctx, a.Unit); err != nil {
		return newError(KindStart, a.Resource(), res.PrimaryOutput(), err)
	}
	return nil
}
