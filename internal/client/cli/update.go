package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runUpdate(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: fieldkeeper update <id> key=value [key=value ...]")
	}

	entityID := args[0]

	fields, err := parseFields(args[1:])
	if err != nil {
		return err
	}

	entity, err := c.dataService.UpdateEntity(ctx, entityID, fields)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	c.io.Println("Record updated.")
	c.io.Printf("ID:     %s\n", entity.ID)
	c.io.Printf("Status: %s\n", entity.SyncStatus)

	return nil
}
