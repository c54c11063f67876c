package sync

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	httpapi "github.com/iudanet/fieldkeeper/internal/client/api"
)

// DefaultProbeInterval - период пробы достижимости сервера
const DefaultProbeInterval = 15 * time.Second

// Monitor следит за достижимостью сервера и сообщает о переходах
// offline -> online. Переход в online - один из триггеров цикла
// синхронизации.
// Online читается из других горутин, пока Run пишет, поэтому atomic.
type Monitor struct {
	client   httpapi.ClientAPI
	logger   *slog.Logger
	onOnline func()
	interval time.Duration
	online   atomic.Bool
}

// NewMonitor creates a reachability monitor. onOnline is called on every
// offline -> online transition.
func NewMonitor(client httpapi.ClientAPI, interval time.Duration, onOnline func(), logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &Monitor{
		client:   client,
		interval: interval,
		onOnline: onOnline,
		logger:   logger,
	}
}

// Online reports the last observed reachability state
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Run probes the server until the context is canceled.
// Первая проба выполняется сразу, не дожидаясь тика.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	err := m.client.Health(ctx)
	nowOnline := err == nil
	wasOnline := m.online.Swap(nowOnline)

	if nowOnline && !wasOnline {
		m.logger.Info("server reachable, triggering sync")
		if m.onOnline != nil {
			m.onOnline()
		}
	}
	if !nowOnline && wasOnline {
		m.logger.Info("server unreachable", "error", err)
	}
}
