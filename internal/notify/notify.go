package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Notifier delivers human-readable status lines.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Console writes each line to an io.Writer, normally stdout.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Notify(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintln(c.w, text); err != nil {
		return fmt.Errorf("write console: %w", err)
	}
	return nil
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
