package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("=== Synchronization ===")
	c.io.Println()
	c.io.Println("Sending queued changes...")

	result, err := c.syncService.SyncCycle(ctx)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	c.io.Println()
	c.io.Println("Synchronization cycle completed.")
	c.io.Println()
	c.io.Printf("Sent:         %d\n", result.Sent)
	c.io.Printf("Applied:      %d\n", result.Applied)
	if result.Conflicts > 0 {
		c.io.Printf("Conflicts:    %d\n", result.Conflicts)
	}
	if result.Transient > 0 {
		c.io.Printf("Rescheduled:  %d\n", result.Transient)
	}
	if result.DeadLettered > 0 {
		c.io.Printf("Dead letter:  %d\n", result.DeadLettered)
	}
	if result.Held > 0 {
		c.io.Printf("Held:         %d (waiting for parent records)\n", result.Held)
	}

	pending, err := c.syncService.PendingCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending changes: %w", err)
	}
	if pending > 0 {
		c.io.Println()
		c.io.Printf("%d change(s) still pending.\n", pending)
	}

	return nil
}

func (c *Cli) runRetry(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing record ID. Usage: fieldkeeper retry <id>")
	}

	if err := c.syncService.RetryNow(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}

	c.io.Println("Retry scheduled; the change will be sent on the next cycle.")

	return nil
}
