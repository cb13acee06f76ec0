package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/nexus-library/internal/library"
)

// ErrInterrupted is returned by Run when the user quit before the operation
// returned.
var ErrInterrupted = errors.New("interrupted before the operation finished")

// Run draws op's progress until it returns. bridge must be the workflow's
// event emitter; Run closes it.
func Run(ctx context.Context, title, id string, bridge *EventBridge, abort AbortFunc, op Operation, opts ...tea.ProgramOption) (library.Result, error) {
	defer bridge.Close()

	model := NewModel(ctx, title, id, bridge, abort, op)

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return library.Result{}, fmt.Errorf("failed to run progress view: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return library.Result{}, ErrInterrupted
	}

	res, ok := m.Result()
	if !ok {
		return library.Result{}, ErrInterrupted
	}

	return res, nil
}
