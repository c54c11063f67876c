package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runCreate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing record type. Usage: fieldkeeper create <type> [--parent ID] key=value ...")
	}

	entityType := args[0]
	parentID := ""

	fieldArgs := make([]string, 0, len(args)-1)
	for i := 1; i < len(args); i++ {
		if args[i] == "--parent" {
			if i+1 >= len(args) {
				return fmt.Errorf("--parent requires a record ID")
			}
			parentID = args[i+1]
			i++
			continue
		}
		fieldArgs = append(fieldArgs, args[i])
	}

	fields, err := parseFields(fieldArgs)
	if err != nil {
		return err
	}

	entity, err := c.dataService.CreateEntity(ctx, entityType, parentID, fields)
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	c.io.Println("Record created.")
	c.io.Printf("ID:     %s\n", entity.ID)
	c.io.Printf("Type:   %s\n", entity.Type)
	c.io.Printf("Status: %s\n", entity.SyncStatus)

	return nil
}
