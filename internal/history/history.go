// Package history sequences command execution and owns the undo/redo log.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cutline/internal/command"
	"cutline/internal/logging"
	"cutline/internal/services"
)

// Orchestrator holds the ordered log of executed commands and a cursor
// separating the undoable prefix from the redoable tail.
type Orchestrator struct {
	logger *slog.Logger

	mu     sync.Mutex
	log    []command.Command
	cursor int
}

func New(logger *slog.Logger) *Orchestrator {
	return &Orchestrator{logger: logging.NewComponentLogger(logger, "history")}
}

// Execute runs the command and, on success, appends it to the log,
// discarding any redo tail. Commands whose stored before/after values are
// indistinguishable are skipped entirely, so float noise from drag handlers
// never lands in the log. A failed command is not appended and the failure
// propagates.
func (h *Orchestrator) Execute(ctx context.Context, cmd command.Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n, ok := cmd.(command.Noop); ok && n.Noop() {
		h.logger.Debug("skipping no-op command",
			logging.String(logging.FieldCommandID, cmd.ID()),
		)
		return nil
	}
	if err := cmd.Execute(services.WithCommandID(ctx, cmd.ID())); err != nil {
		return fmt.Errorf("execute %s: %w", cmd.Description(), err)
	}
	h.log = append(h.log[:h.cursor], cmd)
	h.cursor++
	h.logger.Info("command executed",
		logging.String(logging.FieldCommandID, cmd.ID()),
		logging.String("description", cmd.Description()),
	)
	return nil
}

// Undo reverts the most recent applied command. A command whose subject was
// already removed by a later edit is logged as a warning and skipped over,
// not treated as a failure.
func (h *Orchestrator) Undo(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor == 0 {
		return services.Wrap(services.ErrPrecondition, "history", "undo", "nothing to undo", nil)
	}
	cmd := h.log[h.cursor-1]
	if err := cmd.Undo(services.WithCommandID(ctx, cmd.ID())); err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("undo %s: %w", cmd.Description(), err)
		}
		h.logger.Warn("undo subject no longer exists",
			logging.String(logging.FieldCommandID, cmd.ID()),
			logging.Error(err),
		)
	}
	h.cursor--
	return nil
}

// Redo re-applies the next command past the cursor.
func (h *Orchestrator) Redo(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor >= len(h.log) {
		return services.Wrap(services.ErrPrecondition, "history", "redo", "nothing to redo", nil)
	}
	cmd := h.log[h.cursor]
	if err := cmd.Execute(services.WithCommandID(ctx, cmd.ID())); err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("redo %s: %w", cmd.Description(), err)
		}
		h.logger.Warn("redo subject no longer exists",
			logging.String(logging.FieldCommandID, cmd.ID()),
			logging.Error(err),
		)
	}
	h.cursor++
	return nil
}

// CanUndo reports whether any applied command remains.
func (h *Orchestrator) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

// CanRedo reports whether a redo tail exists.
func (h *Orchestrator) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.log)
}

// Len returns the number of recorded commands, applied or not.
func (h *Orchestrator) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.log)
}

// Descriptions lists the log for display, oldest first.
func (h *Orchestrator) Descriptions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.log))
	for i, cmd := range h.log {
		out[i] = cmd.Description()
	}
	return out
}

// Clear drops the whole log, e.g. when a project closes.
func (h *Orchestrator) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log = nil
	h.cursor = 0
}
