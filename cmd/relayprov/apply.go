package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/relayprov/internal/logger"
	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/plan"
	"github.com/alexisbeaulieu97/relayprov/internal/provision"
	"github.com/alexisbeaulieu97/relayprov/internal/report"
	"github.com/alexisbeaulieu97/relayprov/internal/runner"
	"github.com/alexisbeaulieu97/relayprov/internal/system"
	"github.com/alexisbeaulieu97/relayprov/internal/tui"
	relayerrors "github.com/alexisbeaulieu97/relayprov/pkg/errors"
)

type applyOptions struct {
	Target      targetFlags
	Plans       []string
	DryRun      bool
	Verbose     bool
	Output      string
	ReportFile  string
	ReportS3    string
	S3Region    string
	NoTUI       bool
	Interactive bool

	Stdout io.Writer
	Stderr io.Writer
}

// applyEnv holds what apply needs from the host, so tests can swap it.
type applyEnv struct {
	commands system.Runner
	upload   func(ctx context.Context, dest, region string, r *model.RunReport) (string, error)
}

var defaultApplyEnv = applyEnv{
	commands: system.ExecRunner{},
	upload: func(ctx context.Context, dest, region string, r *model.RunReport) (string, error) {
		u, err := report.NewS3Uploader(ctx, dest, region)
		if err != nil {
			return "", err
		}
		return u.Upload(ctx, r)
	},
}

var applyCmdRunner = runApply

func newApplyCmd(root *rootFlags) *cobra.Command {
	opts := applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Converge this machine to the relay configuration for a profile",
		Long: `Apply builds the provisioning plans for the selected profile and runs them
in order. Steps whose resource already matches are skipped. Exit codes:
0 converged, 1 a fatal step failed, 2 invalid options or plans,
3 completed with non-fatal failures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DryRun = root.dryRun
			opts.Verbose = root.verbose
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			opts.Interactive = !opts.NoTUI && isTerminal(opts.Stdout)

			return applyCmdRunner(cmd.Context(), opts, defaultApplyEnv)
		},
	}

	opts.Target.register(cmd)
	cmd.Flags().StringArrayVar(&opts.Plans, "plan", nil, "Run only the named plan (repeatable)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "table", "Report format: table, json or yaml")
	cmd.Flags().StringVar(&opts.ReportFile, "report-file", "", "Also write the report to this file (.json or .yaml)")
	cmd.Flags().StringVar(&opts.ReportS3, "report-s3", "", "Upload the JSON report to s3://bucket/prefix")
	cmd.Flags().StringVar(&opts.S3Region, "s3-region", "", "AWS region for --report-s3 (defaults to the AWS config chain)")
	cmd.Flags().BoolVar(&opts.NoTUI, "no-tui", false, "Disable the interactive progress view")

	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runApply(ctx context.Context, opts applyOptions, env applyEnv) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, prof, err := opts.Target.load()
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(opts.Output)
	if err != nil {
		return relayerrors.NewValidationError("output", err.Error(), err)
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	logWriter := opts.Stderr
	if opts.Interactive && !opts.Verbose {
		// The progress view owns the terminal.
		logWriter = io.Discard
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true, Writer: logWriter})
	if err != nil {
		return err
	}

	builder := provision.NewBuilder(*cfg, prof, env.commands)
	if opts.Verbose && !opts.Interactive {
		builder.Progress = opts.Stderr
	}
	plans, err := builder.Build()
	if err != nil {
		return err
	}
	plans, err = plan.Select(plans, opts.Plans)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := runner.New(log, opts.DryRun)
	r.Profile = prof.Name

	var program *tea.Program
	var programErr error
	done := make(chan struct{})
	if opts.Interactive {
		program = tea.NewProgram(tui.NewModel(prof.Name, cancel), tea.WithOutput(opts.Stdout))
		r.Observers = append(r.Observers, tui.Observer(program))
		go func() {
			_, programErr = program.Run()
			close(done)
		}()
	}

	rep, runErr := r.Execute(ctx, plans...)

	if program != nil {
		if rep == nil {
			program.Quit()
		}
		<-done
		if programErr != nil {
			log.Warn(programErr, "progress view failed")
		}
	}

	if rep == nil {
		return runErr
	}
	if runErr != nil {
		log.Warn(runErr, "run interrupted")
	}

	// The progress view already showed the table.
	if !opts.Interactive || format != report.FormatTable {
		if err := report.Write(opts.Stdout, rep, format); err != nil {
			return err
		}
	}

	if opts.ReportFile != "" {
		if err := report.WriteFile(opts.ReportFile, rep); err != nil {
			log.Error(err, "failed to write report file")
		} else {
			log.With("path", opts.ReportFile).Info("report written")
		}
	}

	if opts.ReportS3 != "" && env.upload != nil {
		location, err := env.upload(context.WithoutCancel(ctx), opts.ReportS3, opts.S3Region, rep)
		if err != nil {
			log.Error(err, "failed to upload report")
		} else {
			log.With("location", location).Info("report uploaded")
		}
	}

	code := rep.ExitCode()
	if cfg.Reboot {
		switch {
		case opts.DryRun:
			log.Info("reboot skipped for dry run")
		case code != model.ExitOK:
			log.With("exit_code", strconv.Itoa(code)).Info("reboot skipped, run did not fully converge")
		default:
			log.Info("rebooting")
			if _, err := (system.Systemctl{Runner: env.commands}).Reboot(context.WithoutCancel(ctx)); err != nil {
				log.Error(err, "reboot failed")
				return err
			}
		}
	}

	if code != model.ExitOK {
		return &exitError{code: code}
	}
	return nil
}
