package cli

import (
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

type entityView struct {
	Entity    *models.Entity
	Status    models.SyncStatus
	UpdatedAt string
}

func (c *Cli) runGet(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing record ID. Usage: fieldkeeper get <id>")
	}

	entityID := args[0]

	entity, err := c.dataService.GetEntity(ctx, entityID)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return fmt.Errorf("record not found: %s", entityID)
		}
		return fmt.Errorf("failed to load record: %w", err)
	}

	// Статус проецируется из очереди и конфликтов, не из самой записи
	status, err := c.syncService.Status(ctx, entityID)
	if err != nil {
		status = entity.SyncStatus
	}

	tmpl, err := template.New("entity").Parse(entityTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	view := entityView{
		Entity:    entity,
		Status:    status,
		UpdatedAt: entity.UpdatedAt.Format(time.RFC3339),
	}
	if err := tmpl.Execute(c.io, view); err != nil {
		return fmt.Errorf("failed to render record: %w", err)
	}

	return nil
}
