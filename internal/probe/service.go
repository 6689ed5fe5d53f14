package probe

import (
	"context"
	"strings"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/resource"
	"github.com/alexisbeaulieu97/relayprov/internal/system"
)

// ServiceState checks that a unit is both enabled and active. BootOnly
// units only need to be enabled.
type ServiceState struct {
	Unit      string
	Systemctl system.Systemctl
	BootOnly  bool
}

var _ Probe = ServiceState{}

func (p ServiceState) Resource() resource.ID { return resource.ServiceState(p.Unit) }

func (p ServiceState) Check(ctx context.Context) model.ProbeResult {
	id := p.Resource()
	if res, done := cancelled(ctx, id); done {
		return res
	}

	enabled, err := p.Systemctl.IsEnabled(ctx, p.Unit)
	if err != nil {
		return failed(id, err)
	}
	if p.BootOnly {
		if enabled {
			return model.Present("enabled")
		}
		return model.Absent("not enabled")
	}
	active, err := p.Systemctl.IsActive(ctx, p.Unit)
	if err != nil {
		return failed(id, err)
	}

	if enabled && active {
		return model.Present("enabled and active")
	}

	var missing []string
	if !enabled {
		missing = append(missing, "not enabled")
	}
	if !active {
		missing = append(missing, "not active")
	}
	return model.Absent(strings.Join(missing, ", "))
}
