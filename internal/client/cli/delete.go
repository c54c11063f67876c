package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
)

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing record ID. Usage: fieldkeeper delete <id>")
	}

	entityID := args[0]

	entity, err := c.dataService.GetEntity(ctx, entityID)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return fmt.Errorf("record not found: %s", entityID)
		}
		return fmt.Errorf("failed to load record: %w", err)
	}

	c.io.Println("=== Delete Record ===")
	c.io.Println()
	c.io.Printf("ID:   %s\n", entity.ID)
	c.io.Printf("Type: %s\n", entity.Type)
	c.io.Println()

	confirm, err := c.io.ReadInput("Delete this record? (yes/no): ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if confirm != "yes" && confirm != "y" {
		c.io.Println("Cancelled.")
		return nil
	}

	if err := c.dataService.DeleteEntity(ctx, entityID); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	c.io.Println("Record deleted locally; deletion will be sent on the next sync.")

	return nil
}
