// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package progress bridges the build and execute pipelines' slog
// output into an interactive bubbletea progress display, for the CLI
// front end's --progress mode. The pipelines themselves only ever see
// a *slog.Logger; this package's handler is what turns that into
// terminal output, so a non-interactive run (piped output, --json)
// can swap in a plain slog.Handler with no pipeline code changes.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers one slog record to the bubbletea model.
type logRecordMsg struct {
	Summary    string
	Structured string
	Level      slog.Level
}

// logRecordFadeMsg clears the most recent record from the status line
// after logRecordFadeDelay, the same way a ticket's status bar fades
// back to its help text.
type logRecordFadeMsg struct{}

const logRecordFadeDelay = 3 * time.Second

// Handler is a slog.Handler that routes records into a bubbletea
// program as messages instead of writing text directly, so the
// program's own render loop controls the terminal.
type Handler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
	groups  []string
}

// NewHandler creates a handler that delivers records at or above
// level. Call SetProgram once the tea.Program exists; records
// delivered before that are dropped.
func NewHandler(level slog.Level) *Handler {
	return &Handler{level: level, program: &atomic.Pointer[tea.Program]{}}
}

// SetProgram attaches the bubbletea program that receives messages.
// Safe to call from any goroutine; propagates to every handler derived
// via WithAttrs/WithGroup since they share the same atomic pointer.
func (h *Handler) SetProgram(program *tea.Program) {
	h.program.Store(program)
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	program := h.program.Load()
	if program == nil {
		return nil
	}

	summary := record.Message
	var attrParts []string
	for _, attr := range h.attrs {
		attrParts = append(attrParts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		attrParts = append(attrParts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
		return true
	})
	if len(attrParts) > 0 {
		summary += " ("
		for i, part := range attrParts {
			if i > 0 {
				summary += ", "
			}
			summary += part
		}
		summary += ")"
	}

	program.Send(logRecordMsg{
		Summary:    summary,
		Structured: h.buildStructuredJSON(record),
		Level:      record.Level,
	})
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{level: h.level, program: h.program, attrs: append(cloneSlice(h.attrs), attrs...), groups: cloneSlice(h.groups)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{level: h.level, program: h.program, attrs: cloneSlice(h.attrs), groups: append(cloneSlice(h.groups), name)}
}

func (h *Handler) buildStructuredJSON(record slog.Record) string {
	fields := map[string]any{
		"time":  record.Time.Format(time.RFC3339),
		"level": record.Level.String(),
		"msg":   record.Message,
	}
	for _, attr := range h.attrs {
		fields[attr.Key] = attr.Value.String()
	}
	record.Attrs(func(attr slog.Attr) bool {
		fields[attr.Key] = attr.Value.String()
		return true
	})
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Sprintf(`{"msg":%q,"error":"marshal failed"}`, record.Message)
	}
	return string(data)
}

func cloneSlice[T any](source []T) []T {
	if source == nil {
		return nil
	}
	result := make([]T, len(source))
	copy(result, source)
	return result
}
