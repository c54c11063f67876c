package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// runWatch запускает фоновый режим: периодические циклы синхронизации
// плюс проба достижимости сервера, пока процесс не остановят
func (c *Cli) runWatch(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.io.Println("Watching for changes; press Ctrl+C to stop.")

	if c.monitor != nil {
		go c.monitor.Run(ctx)
	}

	if err := c.syncService.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("sync loop failed: %w", err)
	}

	c.io.Println()
	c.io.Println("Stopped.")

	return nil
}
