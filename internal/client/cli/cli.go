// Package cli реализует командный интерфейс клиента: локальные операции
// над записями, управление очередью синхронизации и разрешение конфликтов.
package cli

import (
	"fmt"

	"github.com/iudanet/fieldkeeper/internal/client/api"
	"github.com/iudanet/fieldkeeper/internal/client/data"
	"github.com/iudanet/fieldkeeper/internal/client/iocli"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/client/sync"
)

type Cli struct {
	io          iocli.IO
	apiClient   api.ClientAPI
	dataService data.Service
	syncService sync.Service
	store       storage.Storage
	monitor     *sync.Monitor
}

func New(io iocli.IO, apiClient api.ClientAPI, dataService data.Service, syncService sync.Service, store storage.Storage) *Cli {
	return &Cli{
		io:          io,
		apiClient:   apiClient,
		dataService: dataService,
		syncService: syncService,
		store:       store,
	}
}

// SetMonitor подключает пробу достижимости для команды watch
func (c *Cli) SetMonitor(m *sync.Monitor) {
	c.monitor = m
}

func PrintUsage() {
	fmt.Println("FieldKeeper Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fieldkeeper [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version          Show version information")
	fmt.Println("  --server URL       Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH          Path to local database (default: fieldkeeper-client.db)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  register                         Register this device on the server")
	fmt.Println("  login                            Login and store the access token")
	fmt.Println("  logout                           Delete the local session")
	fmt.Println("  create <type> [--parent ID] k=v  Create a record (quote, job, line_item)")
	fmt.Println("  update <id> k=v [k=v ...]        Update record fields")
	fmt.Println("  delete <id>                      Delete a record")
	fmt.Println("  get <id>                         Show record details and sync state")
	fmt.Println("  list [type]                      List records, optionally by type")
	fmt.Println("  status [id]                      Show sync status (of one record or overall)")
	fmt.Println("  sync                             Run one synchronization cycle now")
	fmt.Println("  watch                            Keep syncing in the background until interrupted")
	fmt.Println("  retry <id>                       Reset retry schedule and sync immediately")
	fmt.Println("  conflicts                        List unresolved conflicts")
	fmt.Println("  resolve <id> <local|remote>      Resolve a conflict with the chosen version")
	fmt.Println("  deadletter                       List permanently failed changes")
	fmt.Println()
	fmt.Println("Field values are parsed as JSON when possible, otherwise as strings:")
	fmt.Println("  fieldkeeper create quote title='Fence repair' total=1250.50")
	fmt.Println("  fieldkeeper update b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5 status=approved")
	fmt.Println()
	fmt.Println("All commands work offline; changes are queued and sent when the")
	fmt.Println("server becomes reachable.")
}
