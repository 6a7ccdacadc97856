package command

import (
	"context"
	"errors"

	"cutline/internal/logging"
	"cutline/internal/services"
)

// Batch groups commands into one history entry. Execute runs them in order
// and rolls the already-executed prefix back if one fails; Undo runs in
// reverse order.
type Batch struct {
	base
	commands []Command
}

func NewBatch(deps Deps, description string, commands ...Command) (*Batch, error) {
	if len(commands) == 0 {
		return nil, services.Wrap(services.ErrValidation, "command", "batch", "batch needs at least one command", nil)
	}
	return &Batch{
		base:     newBase(deps, description),
		commands: commands,
	}, nil
}

func (c *Batch) Noop() bool {
	for _, cmd := range c.commands {
		if n, ok := cmd.(Noop); !ok || !n.Noop() {
			return false
		}
	}
	return true
}

func (c *Batch) Execute(ctx context.Context) error {
	for i, cmd := range c.commands {
		if err := cmd.Execute(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if undoErr := c.commands[j].Undo(ctx); undoErr != nil {
					c.deps.Logger.Error("batch rollback step failed",
						logging.String(logging.FieldCommandID, c.commands[j].ID()),
						logging.Error(undoErr),
					)
				}
			}
			return err
		}
	}
	return nil
}

func (c *Batch) Undo(ctx context.Context) error {
	var errs []error
	for i := len(c.commands) - 1; i >= 0; i-- {
		if err := c.commands[i].Undo(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
