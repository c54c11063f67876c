package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runDeadLetter(ctx context.Context) error {
	items, err := c.store.ListQueue(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list queue: %w", err)
	}

	c.io.Println("=== Dead Letter ===")
	c.io.Println()

	found := 0
	for _, item := range items {
		if !item.DeadLetter {
			continue
		}
		found++

		c.io.Printf("Record:    %s\n", item.EntityID)
		c.io.Printf("Operation: %s %s\n", item.Operation, item.EntityType)
		c.io.Printf("Attempts:  %d\n", item.RetryCount)
		c.io.Printf("Error:     %s\n", item.LastError)
		c.io.Println()
	}

	if found == 0 {
		c.io.Println("No permanently failed changes.")
		return nil
	}

	c.io.Printf("Total: %d change(s). Use 'fieldkeeper retry <id>' to try again.\n", found)

	return nil
}
