package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/motionnets/mptrain/internal/rerrors"
)

// Flags holds the parsed command-line surface: one required positional path
// to the configuration file plus four boolean switches.
type Flags struct {
	ConfigPath      string
	Test            bool
	NoLogging       bool
	NoCheckpointing bool
	AllowDirtyRepo  bool
}

// ParseFlags parses command-line arguments into Flags. Usage output goes to w.
func ParseFlags(args []string, w io.Writer) (Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(w)
	fs.BoolVar(&f.Test, "test", false, "run a short smoke test with a few batches (disables logging)")
	fs.BoolVar(&f.NoLogging, "no-logging", false, "don't log to the experiment tracker")
	fs.BoolVar(&f.NoCheckpointing, "no-checkpointing", false, "don't save checkpoints")
	fs.BoolVar(&f.AllowDirtyRepo, "allow-dirty-repo", false, "run with uncommitted changes (disables logging)")
	fs.Usage = func() {
		fmt.Fprintf(w, "Usage: train [flags] <config.yaml>\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		fs.Usage()
		return Flags{}, rerrors.Configuration("exactly one positional argument is required: the configuration file path")
	}
	f.ConfigPath = rest[0]
	return f, nil
}
