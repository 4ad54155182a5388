// Command train runs one end-to-end training run of the motion-planning
// policy: it resolves configuration, enforces the reproducibility gate,
// selects the execution strategy, installs the checkpoint policy, and drives
// the fit loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/motionnets/mptrain/internal/checkpoint"
	"github.com/motionnets/mptrain/internal/config"
	"github.com/motionnets/mptrain/internal/logger"
	"github.com/motionnets/mptrain/internal/mpnet"
	"github.com/motionnets/mptrain/internal/rerrors"
	"github.com/motionnets/mptrain/internal/tracking"
	"github.com/motionnets/mptrain/internal/trainer"
	"github.com/motionnets/mptrain/internal/worktree"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(rerrors.ExitCode(rerrors.CodeOf(err)))
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	// External termination is the only way to stop a run mid-fit; the
	// checkpoint triggers make that safe.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver := &trainer.Driver{
		Flags:     flags,
		Inspector: &worktree.GitInspector{},
		Confirmer: &worktree.TerminalConfirmer{In: os.Stdin, Out: os.Stderr},
		Store:     &checkpoint.FSStore{},
		NewTracker: func(ctx context.Context, runName string, cfg config.TrackingConfig, log *logger.Logger) (tracking.Tracker, error) {
			return tracking.NewOTelTracker(ctx, runName, cfg, log)
		},
		NewModel: mpnet.NewPolicyNetwork,
		NewData:  mpnet.NewDataModule,
	}
	return driver.Run(ctx)
}
