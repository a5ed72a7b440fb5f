// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts an interactive bubbletea progress display, runs pipeline
// against a logger wired to the display, and blocks until the
// pipeline returns. The pipeline's error (if any) is shown as the
// terminal status line and also returned to the caller, so callers
// still drive their own exit code.
func Run(ctx context.Context, level slog.Level, pipeline func(logger *slog.Logger) error) error {
	handler := NewHandler(level)
	logger := slog.New(handler)

	program := tea.NewProgram(newModel(), tea.WithContext(ctx))
	handler.SetProgram(program)

	go func() {
		err := pipeline(logger)
		program.Send(doneMsg{err: err})
	}()

	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(model); ok {
		return m.err
	}
	return nil
}
