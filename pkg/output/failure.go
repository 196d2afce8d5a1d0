package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gridctl/jsproc/pkg/engine"
	"github.com/gridctl/jsproc/pkg/gateway"
)

// Failure prints err for a human. Transpile errors get their engine stack
// underneath; engine init errors name the stage that failed.
func (p *Printer) Failure(err error) {
	if err == nil {
		return
	}

	var te *gateway.TranspileError
	var ie *engine.InitError
	switch {
	case errors.As(err, &te):
		p.failure("transpile failed", te.Message, te.Stack)
	case errors.As(err, &ie):
		p.failure("engine failed to start", p.render(stageLabel, ie.Stage)+": "+ie.Err.Error(), "")
	default:
		p.failure("error", err.Error(), "")
	}
}

func (p *Printer) failure(title, msg, stack string) {
	fmt.Fprintf(p.out, "%s %s\n", p.render(failureTitle, title+":"), msg)
	for _, line := range strings.Split(strings.TrimRight(stack, "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			if p.isTTY {
				fmt.Fprintln(p.out, stackLine.Render(line))
			} else {
				fmt.Fprintln(p.out, "    "+line)
			}
		}
	}
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.isTTY {
		return s
	}
	return style.Render(s)
}
