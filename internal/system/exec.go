package system

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes one external program invocation.
type Command struct {
	Name string
	Args []string
	Env  []string
	Dir  string

	// Secrets are masked wherever the command or its output is rendered.
	Secrets []string
}

const redacted = "[REDACTED]"

// String renders the command line for logs and reports.
func (c Command) String() string {
	return c.Mask(strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " ")))
}

// Mask replaces every secret of c found in s.
func (c Command) Mask(s string) string {
	for _, secret := range c.Secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, redacted)
		}
	}
	return s
}

// Result captures stdout/stderr emitted by a command run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// PrimaryOutput returns stderr if present, otherwise stdout.
func (r Result) PrimaryOutput() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// Runner abstracts process execution so probes and actions can be tested
// without touching the host.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner executes commands on the local host. When Echo is set, the
// child's output is mirrored there while still being captured.
type ExecRunner struct {
	Echo io.Writer
}

var _ Runner = ExecRunner{}

// Run executes cmd and returns its captured output. A non-zero exit is
// returned as *exec.ExitError with ExitCode populated.
func (r ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Dir = c.Dir

	var stdoutBuf, stderrBuf bytes.Buffer
	if r.Echo != nil {
		cmd.Stdout = io.MultiWriter(r.Echo, &stdoutBuf)
		cmd.Stderr = io.MultiWriter(r.Echo, &stderrBuf)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	res := Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, err
	}

	res.ExitCode = 1
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		res.ExitCode = 127
	}
	return res, err
}

// IsExitError reports whether err means the process ran and exited non-zero,
// as opposed to failing to start.
func IsExitError(err error) bool {
	if err == nil {
		return false
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return true
	}
	var coded interface{ ExitStatus() int }
	return errors.As(err, &coded)
}
