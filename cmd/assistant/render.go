package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/strugal/inventory-platform/internal/chat"
	"github.com/strugal/inventory-platform/internal/locale"
	"github.com/strugal/inventory-platform/internal/model"
)

var (
	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

const assistantLabel = "STRUGAL"

// renderer prints the in-flight assistant message incrementally: each
// snapshot writes only the content not yet on screen.
type renderer struct {
	out   io.Writer
	texts locale.Strings

	mu       sync.Mutex
	activeID string
	printed  int
	typing   bool
}

func newRenderer(out io.Writer, texts locale.Strings) *renderer {
	return &renderer{out: out, texts: texts}
}

// Greet prints the header and the opening assistant message.
func (r *renderer) Greet(s chat.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "%s %s\n", assistantStyle.Render(assistantLabel), statusStyle.Render("● "+r.texts.Online))
	if first, ok := s.Last(); ok && first.Role == model.RoleAssistant {
		fmt.Fprintln(r.out, first.Content)
	}
	fmt.Fprintln(r.out, statusStyle.Render(r.texts.Prompt))
}

// Render is a chat.Consumer subscriber.
func (r *renderer) Render(s chat.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Typing && !r.typing {
		fmt.Fprintln(r.out, statusStyle.Render(r.texts.Typing))
	}
	r.typing = s.Typing

	if s.Phase != chat.PhaseStreaming {
		return
	}
	last, ok := s.Last()
	if !ok || last.Role != model.RoleAssistant || last.Content == "" {
		return
	}

	if last.ID != r.activeID {
		r.activeID = last.ID
		r.printed = 0
		fmt.Fprintf(r.out, "%s ", assistantStyle.Render(assistantLabel+":"))
	}
	if len(last.Content) > r.printed {
		io.WriteString(r.out, last.Content[r.printed:])
		r.printed = len(last.Content)
	}
}

// EndTurn terminates the streamed line and reports failures.
func (r *renderer) EndTurn(outcome chat.Outcome, s chat.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.printed > 0 {
		fmt.Fprintln(r.out)
	}
	r.activeID = ""
	r.printed = 0
	r.typing = false

	switch outcome {
	case chat.OutcomeRejected, chat.OutcomeFailedEmpty, chat.OutcomeFailedPartial:
		fmt.Fprintf(r.out, "%s %s\n", errorStyle.Render(r.texts.ErrorLabel+":"), s.Error)
	}
}
