package system

import (
	"context"
	"fmt"
)

// Systemctl drives the system service manager through the systemctl binary.
type Systemctl struct {
	Runner Runner
}

// IsEnabled reports whether the unit is enabled. A negative answer from
// systemctl is not an error; failing to run systemctl is.
func (s Systemctl) IsEnabled(ctx context.Context, unit string) (bool, error) {
	return s.query(ctx, "is-enabled", unit)
}

// IsActive reports whether the unit is running.
func (s Systemctl) IsActive(ctx context.Context, unit string) (bool, error) {
	return s.query(ctx, "is-active", unit)
}

// DaemonReload makes systemd re-read unit files.
func (s Systemctl) DaemonReload(ctx context.Context) (Result, error) {
	return s.run(ctx, "daemon-reload")
}

// Enable marks the unit to start at boot.
func (s Systemctl) Enable(ctx context.Context, unit string) (Result, error) {
	return s.run(ctx, "enable", unit)
}

// Start starts the unit if it is not running.
func (s Systemctl) Start(ctx context.Context, unit string) (Result, error) {
	return s.run(ctx, "start", unit)
}

// Restart starts the unit, restarting it if already running so a rewritten
// unit file takes effect.
func (s Systemctl) Restart(ctx context.Context, unit string) (Result, error) {
	return s.run(ctx, "restart", unit)
}

// Reboot asks systemd to reboot the machine.
func (s Systemctl) Reboot(ctx context.Context) (Result, error) {
	return s.run(ctx, "--system", "reboot", "-q")
}

func (s Systemctl) query(ctx context.Context, verb, unit string) (bool, error) {
	_, err := s.run(ctx, verb, "-q", unit)
	if err == nil {
		return true, nil
	}
	if IsExitError(err) {
		return false, nil
	}
	return false, fmt.Errorf("systemctl %s %s: %w", verb, unit, err)
}

func (s Systemctl) run(ctx context.Context, args ...string) (Result, error) {
	return s.Runner.Run(ctx, Command{Name: "systemctl", Args: args})
}
