package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the dashboard until the user quits or ctx is canceled.
func Run(ctx context.Context, source Source, opts ...Option) error {
	if source == nil {
		return fmt.Errorf("data source is required")
	}

	m := New(ctx, source, opts...)
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if m.config.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(m, programOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	if fm, ok := final.(Model); ok && fm.lastError != nil {
		return fm.lastError
	}
	return nil
}
