package worktree

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks the user a yes/no question and blocks until a valid answer
// is entered. It must not be reachable from a non-interactive execution path.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// TerminalConfirmer prompts on an interactive terminal. It re-asks until the
// answer case-insensitively matches y, yes, n, or no.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

var affirmative = map[string]bool{
	"y":   true,
	"yes": true,
	"n":   false,
	"no":  false,
}

// Confirm writes the prompt and reads answers until one is valid.
func (t *TerminalConfirmer) Confirm(prompt string) (bool, error) {
	reader := bufio.NewReader(t.In)
	for {
		if _, err := fmt.Fprintf(t.Out, "%s [y/n] ", prompt); err != nil {
			return false, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, fmt.Errorf("reading confirmation: %w", err)
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		if yes, ok := affirmative[answer]; ok {
			return yes, nil
		}
		if err != nil {
			return false, fmt.Errorf("no valid confirmation before end of input")
		}
	}
}
