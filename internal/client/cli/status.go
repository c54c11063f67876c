package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
)

func (c *Cli) runStatus(ctx context.Context, args []string) error {
	// С аргументом показываем статус одной записи
	if len(args) > 0 {
		status, err := c.syncService.Status(ctx, args[0])
		if err != nil {
			if errors.Is(err, storage.ErrEntityNotFound) {
				return fmt.Errorf("record not found: %s", args[0])
			}
			return fmt.Errorf("failed to get status: %w", err)
		}
		c.io.Printf("%s: %s\n", args[0], status)
		return nil
	}

	c.io.Println("=== Sync Status ===")
	c.io.Println()

	session, err := c.store.GetSession(ctx)
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		c.io.Println("Session: not logged in")
		c.io.Println("Run 'fieldkeeper login' to enable synchronization.")
	case err != nil:
		return fmt.Errorf("failed to load session: %w", err)
	default:
		remaining := time.Until(session.ExpiresAt)
		if remaining > 0 {
			c.io.Printf("Session: active, token expires in %s\n", remaining.Round(time.Second))
		} else {
			c.io.Println("Session: token expired. Please login again.")
		}
	}
	c.io.Println()

	pending, err := c.syncService.PendingCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending changes: %w", err)
	}
	if pending > 0 {
		c.io.Printf("Pending: %d change(s) waiting to be sent\n", pending)
	} else {
		c.io.Println("Pending: all changes synchronized")
	}

	conflicts, err := c.store.ListConflicts(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list conflicts: %w", err)
	}
	if len(conflicts) > 0 {
		c.io.Printf("Conflicts: %d record(s) need manual resolution, run 'fieldkeeper conflicts'\n", len(conflicts))
	}

	dead := 0
	items, err := c.store.ListQueue(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list queue: %w", err)
	}
	for _, item := range items {
		if item.DeadLetter {
			dead++
		}
	}
	if dead > 0 {
		c.io.Printf("Failed: %d change(s) in dead letter, run 'fieldkeeper deadletter'\n", dead)
	}

	return nil
}
