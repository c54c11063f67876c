package cli

import (
	"context"
	"fmt"
	"text/template"

	"github.com/iudanet/fieldkeeper/internal/models"
)

func (c *Cli) runConflicts(ctx context.Context) error {
	conflicts, err := c.store.ListConflicts(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list conflicts: %w", err)
	}

	if len(conflicts) == 0 {
		c.io.Println("No unresolved conflicts.")
		return nil
	}

	tmpl, err := template.New("conflict").Parse(conflictTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	for _, record := range conflicts {
		if err := tmpl.Execute(c.io, record); err != nil {
			return fmt.Errorf("failed to render conflict: %w", err)
		}
	}

	return nil
}

func (c *Cli) runResolve(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: fieldkeeper resolve <id> <local|remote>")
	}

	entityID := args[0]

	var choice models.ConflictChoice
	switch args[1] {
	case "local":
		choice = models.ChoiceAcceptLocal
	case "remote":
		choice = models.ChoiceAcceptRemote
	default:
		return fmt.Errorf("unknown choice %q, expected 'local' or 'remote'", args[1])
	}

	if err := c.syncService.ResolveConflict(ctx, entityID, choice); err != nil {
		return fmt.Errorf("failed to resolve conflict: %w", err)
	}

	c.io.Printf("Conflict resolved with the %s version; the result is queued for sync.\n", args[1])

	return nil
}
