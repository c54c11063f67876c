package cli

import (
	"context"
	"fmt"
)

// Run выполняет одну команду и возвращает ошибку для печати в main
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "create":
		return c.runCreate(ctx, args)
	case "update":
		return c.runUpdate(ctx, args)
	case "delete":
		return c.runDelete(ctx, args)
	case "get":
		return c.runGet(ctx, args)
	case "list":
		return c.runList(ctx, args)
	case "status":
		return c.runStatus(ctx, args)
	case "sync":
		return c.runSync(ctx)
	case "watch":
		return c.runWatch(ctx)
	case "retry":
		return c.runRetry(ctx, args)
	case "conflicts":
		return c.runConflicts(ctx)
	case "resolve":
		return c.runResolve(ctx, args)
	case "deadletter":
		return c.runDeadLetter(ctx)
	default:
		PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}
