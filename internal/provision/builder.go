// Package provision turns operator options and a board profile into the
// ordered plans that make a relay.
package provision

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/alexisbeaulieu97/relayprov/internal/action"
	"github.com/alexisbeaulieu97/relayprov/internal/config"
	"github.com/alexisbeaulieu97/relayprov/internal/plan"
	"github.com/alexisbeaulieu97/relayprov/internal/probe"
	"github.com/alexisbeaulieu97/relayprov/internal/profile"
	"github.com/alexisbeaulieu97/relayprov/internal/step"
	"github.com/alexisbeaulieu97/relayprov/internal/system"
)

// Plan names, in execution order.
const (
	PlanBasePackages = "base-packages"
	PlanBootConfig   = "boot-config"
	PlanWifi         = "wifi"
	PlanMAVLink      = "mavlink-router"
	PlanStream       = "rtsp-stream"
	PlanDHCP         = "dhcp"
	PlanLTE          = "lte-modem"
	PlanVPN          = "vpn"
)

// BasePackages are installed on every board.
var BasePackages = []string{
	"git",
	"meson",
	"ninja-build",
	"pkg-config",
	"gcc",
	"g++",
	"python3-gi",
	"gir1.2-gst-rtsp-server-1.0",
	"gstreamer1.0-tools",
	"gstreamer1.0-plugins-base",
	"gstreamer1.0-libcamera",
	"libqmi-utils",
	"udhcpc",
	"curl",
	"rfkill",
}

const (
	zeroTierBinary  = "/usr/sbin/zerotier-one"
	tailscaleBinary = "/usr/bin/tailscale"
	zeroTierUnit    = "zerotier-one.service"
)

// Builder declares plans. It never touches the machine; the probes and
// actions it creates do, once a runner executes them.
type Builder struct {
	Options config.Options
	Profile profile.Profile
	Runner  system.Runner

	// Progress receives git clone progress.
	Progress io.Writer

	// root prefixes every managed path; tests point it at a temp dir.
	root string
}

// NewBuilder creates a Builder.
func NewBuilder(opts config.Options, prof profile.Profile, runner system.Runner) *Builder {
	return &Builder{Options: opts, Profile: prof, Runner: runner}
}

// Build returns every applicable plan in execution order.
func (b *Builder) Build() ([]*plan.Plan, error) {
	builders := []func() (*plan.Plan, error){
		b.basePackages,
		b.bootConfig,
		b.wifi,
		b.mavlinkRouter,
		b.rtspStream,
		b.dhcp,
		b.lteModem,
		b.vpn,
	}

	plans := make([]*plan.Plan, 0, len(builders))
	for _, build := range builders {
		p, err := build()
		if err != nil {
			return nil, err
		}
		if p != nil {
			plans = append(plans, p)
		}
	}
	return plans, nil
}

func (b *Builder) path(p string) string {
	if b.root == "" {
		return p
	}
	return filepath.Join(b.root, p)
}

func (b *Builder) apt() system.Apt { return system.Apt{Runner: b.Runner} }

func (b *Builder) systemctl() system.Systemctl { return system.Systemctl{Runner: b.Runner} }

func (b *Builder) render(name string) ([]byte, error) {
	return Render(name, b.Options, b.Profile)
}

func (b *Builder) basePackages() (*plan.Plan, error) {
	names := dedupe(BasePackages, b.Profile.Encoder.Packages, b.Profile.Packages, b.Options.Packages)
	refresh := &action.IndexRefresh{}

	p := plan.New(PlanBasePackages)
	p.Description = "install build, streaming and modem packages"
	for _, name := range names {
		p.Add(step.New("install "+name,
			probe.Package{Name: name, Apt: b.apt()},
			&action.InstallPackage{Name: name, Apt: b.apt(), Refresh: refresh},
		))
	}
	return p, nil
}

func (b *Builder) bootConfig() (*plan.Plan, error) {
	lines := []string{"enable_uart=1"}
	lines = append(lines, b.Profile.BootLines...)
	if b.Profile.CameraLine != "" {
		lines = append(lines, b.Profile.CameraLine)
	}
	if b.Options.DisableWifi {
		lines = append(lines, "dtoverlay=disable-wifi")
	}

	file := b.path(b.Profile.BootConfig)
	p := plan.New(PlanBootConfig)
	p.Description = "enable the UART and camera overlays in " + b.Profile.BootConfig
	for _, line := range dedupe(lines) {
		p.Add(lineStep(file, line))
	}
	return p, nil
}

// wifi steps are best effort: rfkill is missing on some images and the
// boot overlay already covers the next boot.
func (b *Builder) wifi() (*plan.Plan, error) {
	verb, key, check := "unblock", "rfkill-unblock-wifi", "! rfkill list wifi | grep -q 'Soft blocked: yes'"
	if b.Options.DisableWifi {
		verb, key, check = "block", "rfkill-block-wifi", "rfkill list wifi | grep -q 'Soft blocked: yes'"
	}

	checkCmd := action.ShellCommand(check)
	p := plan.New(PlanWifi, step.NonFatal("rfkill "+verb+" wifi",
		probe.Command{Key: key, CheckCommand: &checkCmd, Runner: b.Runner},
		&action.RunCommand{Key: key, Command: action.MustParseCommand("rfkill " + verb + " wifi"), Runner: b.Runner},
	))
	p.Description = "set the wifi radio state"
	return p, nil
}

func (b *Builder) mavlinkRouter() (*plan.Plan, error) {
	conf, err := b.render(PayloadMAVLinkConf)
	if err != nil {
		return nil, err
	}
	unit, err := b.render(PayloadMAVLinkUnit)
	if err != nil {
		return nil, err
	}

	src := b.path(b.Options.MAVLink.SourceDir)
	build := action.ShellCommand("rm -rf build && meson setup build . --buildtype=release --prefix=/usr && ninja -C build && ninja -C build install")
	build.Dir = src

	p := plan.New(PlanMAVLink,
		step.New("clone mavlink-router",
			probe.Repository{Path: src, URL: b.Options.MAVLink.RepoURL},
			&action.CloneRepository{
				Path:       src,
				URL:        b.Options.MAVLink.RepoURL,
				Branch:     b.Options.MAVLink.Branch,
				Submodules: true,
				Progress:   b.Progress,
			},
		),
		step.New("build and install mavlink-router",
			probe.Command{Key: "mavlink-router-build", Creates: b.path(MAVLinkBinary)},
			&action.RunCommand{Key: "mavlink-router-build", Command: build, Runner: b.Runner},
		).Verified(),
		dirStep(b.path(MAVLinkConfDir)),
		fileStep(b.path(MAVLinkConf), conf, 0o644),
	)
	p.Add(b.unitSteps(PayloadMAVLinkUnit, unit, false)...)
	p.Description = "build mavlink-router and route the flight controller UART"
	return p, nil
}

func (b *Builder) rtspStream() (*plan.Plan, error) {
	script, err := b.render(PayloadStreamScript)
	if err != nil {
		return nil, err
	}
	unit, err := b.render(PayloadStreamUnit)
	if err != nil {
		return nil, err
	}

	p := plan.New(PlanStream,
		dirStep(b.path(StreamDir)),
		fileStep(b.path(StreamScript), script, 0o755),
	)
	p.Add(b.unitSteps(PayloadStreamUnit, unit, false)...)
	p.Description = fmt.Sprintf("serve the camera over RTSP with %s", b.Profile.Encoder.Element)
	return p, nil
}

func (b *Builder) dhcp() (*plan.Plan, error) {
	file := b.path(DHClientConf)
	p := plan.New(PlanDHCP,
		lineStep(file, fmt.Sprintf("timeout %d;", b.Options.DHCP.Timeout)),
		lineStep(file, fmt.Sprintf("retry %d;", b.Options.DHCP.Retry)),
	)
	p.Description = "bound DHCP lease acquisition"
	return p, nil
}

func (b *Builder) lteModem() (*plan.Plan, error) {
	if !b.Options.LTE.Enabled {
		return nil, nil
	}
	script, err := b.render(PayloadLTEScript)
	if err != nil {
		return nil, err
	}
	unit, err := b.render(PayloadLTEUnit)
	if err != nil {
		return nil, err
	}

	p := plan.New(PlanLTE, fileStep(b.path(LTEScript), script, 0o755))
	p.Add(b.unitSteps(PayloadLTEUnit, unit, true)...)
	p.Description = "bring up the QMI data session at boot"
	return p, nil
}

func (b *Builder) vpn() (*plan.Plan, error) {
	p := plan.New(PlanVPN)
	p.Description = "install mesh VPN agents"

	if id := b.Options.VPN.ZeroTier.NetworkID; id != "" {
		joinKey := "zerotier-join-" + id
		joined := action.ShellCommand(fmt.Sprintf("zerotier-cli listnetworks | grep -q %s", id))
		p.Add(
			step.NonFatal("install zerotier",
				probe.Command{Key: "zerotier-install", Creates: b.path(zeroTierBinary)},
				&action.RunCommand{Key: "zerotier-install", Command: action.ShellCommand("curl -fsSL https://install.zerotier.com | bash"), Runner: b.Runner},
			),
			step.NonFatal("enable zerotier-one",
				probe.ServiceState{Unit: zeroTierUnit, Systemctl: b.systemctl()},
				&action.EnableService{Unit: zeroTierUnit, Systemctl: b.systemctl()},
			),
			step.NonFatal("join zerotier network "+id,
				probe.Command{Key: joinKey, CheckCommand: &joined, Runner: b.Runner},
				&action.RunCommand{Key: joinKey, Command: action.MustParseCommand("zerotier-cli join " + id), Runner: b.Runner},
			),
		)
	}

	if ts := b.Options.VPN.Tailscale; ts.Enabled {
		up := system.Command{Name: "tailscale", Args: []string{"up"}}
		if ts.AuthKey != "" {
			up.Args = append(up.Args, "--authkey="+ts.AuthKey)
			up.Secrets = []string{ts.AuthKey}
		}
		if ts.Hostname != "" {
			up.Args = append(up.Args, "--hostname="+ts.Hostname)
		}
		status := system.Command{Name: "tailscale", Args: []string{"status"}}
		p.Add(
			step.NonFatal("install tailscale",
				probe.Command{Key: "tailscale-install", Creates: b.path(tailscaleBinary)},
				&action.RunCommand{Key: "tailscale-install", Command: action.ShellCommand("curl -fsSL https://tailscale.com/install.sh | sh"), Runner: b.Runner},
			),
			step.NonFatal("bring tailscale up",
				probe.Command{Key: "tailscale-up", CheckCommand: &status, Runner: b.Runner},
				&action.RunCommand{Key: "tailscale-up", Command: up, Runner: b.Runner},
			),
		)
	}

	if len(p.Steps) == 0 {
		return nil, nil
	}
	return p, nil
}

// unitSteps installs a unit file and then makes sure the service is in the
// wanted state, which also repairs a unit someone stopped by hand.
func (b *Builder) unitSteps(name string, content []byte, bootOnly bool) []*step.Step {
	unitPath := b.path(path.Join(UnitDir, name))
	desc := "start " + name
	if bootOnly {
		desc = "enable " + name + " at boot"
	}
	return []*step.Step{
		step.New("install "+name,
			probe.FileContent{Path: unitPath, Content: content, Unit: true},
			&action.InstallUnit{Path: unitPath, Unit: name, Content: content, Systemctl: b.systemctl(), BootOnly: bootOnly},
		),
		step.New(desc,
			probe.ServiceState{Unit: name, Systemctl: b.systemctl(), BootOnly: bootOnly},
			&action.EnableService{Unit: name, Systemctl: b.systemctl(), BootOnly: bootOnly},
		),
	}
}

func lineStep(file, line string) *step.Step {
	return step.New(fmt.Sprintf("%s in %s", line, filepath.Base(file)),
		probe.FileLine{Path: file, Line: line},
		&action.AppendLine{Path: file, Line: line},
	)
}

func fileStep(file string, content []byte, mode os.FileMode) *step.Step {
	return step.New("write "+file,
		probe.FileContent{Path: file, Content: content},
		&action.WriteFile{Path: file, Content: content, Mode: mode},
	)
}

func dirStep(dir string) *step.Step {
	return step.New("create "+dir, probe.Directory{Path: dir}, &action.EnsureDirectory{Path: dir})
}

func dedupe(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, v := range list {
			if _, ok := seen[v]; ok || v == "" {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
