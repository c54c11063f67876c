package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runList(ctx context.Context, args []string) error {
	entityType := ""
	if len(args) > 0 {
		entityType = args[0]
	}

	entities, err := c.dataService.ListEntities(ctx, entityType)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	c.io.Println("=== Records ===")
	c.io.Println()

	if len(entities) == 0 {
		c.io.Println("No records found.")
		return nil
	}

	c.io.Printf("%-10s %-12s %-10s %s\n", "ID", "TYPE", "STATUS", "PARENT")
	for _, entity := range entities {
		status, err := c.syncService.Status(ctx, entity.ID)
		if err != nil {
			status = entity.SyncStatus
		}

		parent := "-"
		if entity.ParentID != "" {
			parent = shortID(entity.ParentID)
		}
		c.io.Printf("%-10s %-12s %-10s %s\n", shortID(entity.ID), entity.Type, status, parent)
	}

	c.io.Println()
	c.io.Printf("Total: %d record(s)\n", len(entities))

	return nil
}
