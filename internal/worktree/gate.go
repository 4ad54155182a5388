package worktree

import (
	"context"

	"github.com/motionnets/mptrain/internal/rerrors"
)

// Decision is the tri-state outcome of the reproducibility gate.
type Decision int

const (
	// ProceedWithLogging allows the run and leaves logging enablement to the
	// separate no-logging flag downstream.
	ProceedWithLogging Decision = iota
	// ProceedWithoutLogging allows the run but forces logging off: either a
	// smoke test or an acknowledged non-reproducible run.
	ProceedWithoutLogging
	// Abort halts the run before any collaborator is constructed.
	Abort
)

// String renders the decision for logs.
func (d Decision) String() string {
	switch d {
	case ProceedWithLogging:
		return "proceed-with-logging"
	case ProceedWithoutLogging:
		return "proceed-without-logging"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

const dirtyOverridePrompt = "Warning: you have set --allow-dirty-repo which will run an experiment with" +
	" uncommitted changes. This will forcibly disable logging, as logged" +
	" experiments should be reproducible. Do you wish to continue?"

// Gate decides whether the run may proceed given working-tree cleanliness and
// an explicit override. It is a pure function of its inputs plus the two
// injected capabilities, so tests can drive it with fakes.
type Gate struct {
	Inspector Inspector
	Confirmer Confirmer
}

// Check produces the gate decision.
//
// Test mode proceeds without logging unconditionally; the prompt is never
// reached so the gate stays non-interactive there. An accepted dirty override
// also proceeds without logging. A declined override falls through to the
// strict check, which aborts on a dirty tree.
func (g *Gate) Check(ctx context.Context, testMode, allowDirty bool) (Decision, error) {
	if testMode {
		return ProceedWithoutLogging, nil
	}

	if allowDirty {
		confirmed, err := g.Confirmer.Confirm(dirtyOverridePrompt)
		if err != nil {
			return Abort, rerrors.Internal("dirty-repo confirmation failed", err)
		}
		if confirmed {
			return ProceedWithoutLogging, nil
		}
	}

	dirty, err := g.Inspector.IsDirty(ctx)
	if err != nil {
		return Abort, rerrors.Internal("working-tree inspection failed", err)
	}
	if dirty {
		return Abort, rerrors.Reproducibility(
			"uncommitted changes found in the local git repo; commit all changes " +
				"before running experiments to maintain reproducibility")
	}
	return ProceedWithLogging, nil
}
