// Package health provides periodic health monitoring of the table
// store's visible instances, backing the gateway's /health endpoint.
//
// A Monitor probes every visible instance on a fixed interval, tracks
// consecutive failures per instance, and reports a per-instance status
// of healthy, unhealthy, or unknown. An instance becomes unhealthy only
// after several consecutive probe failures, so a single slow probe does
// not flap the status.
package health

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Status is the reported health of one instance.
type Status string

const (
	// StatusHealthy means the last probe succeeded.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy means maxFailures consecutive probes failed.
	StatusUnhealthy Status = "unhealthy"
	// StatusUnknown means no probe has completed yet.
	StatusUnknown Status = "unknown"
)

// InstanceHealth is the probe state of one instance.
type InstanceHealth struct {
	Instance         string    `json:"instance"`
	Status           Status    `json:"status"`
	LastCheck        time.Time `json:"last_check"`
	LastHealthy      time.Time `json:"last_healthy,omitempty"`
	ConsecutiveFails int       `json:"consecutive_fails,omitempty"`
}

// Prober exposes the store operations the monitor needs. Satisfied by
// *store.Catalog.
type Prober interface {
	// Instances returns the visible instance names.
	Instances() []string

	// Probe verifies one instance is reachable.
	Probe(instance string) error
}

// Monitor periodically probes every visible instance.
// All methods are safe for concurrent use.
type Monitor struct {
	prober      Prober
	interval    time.Duration
	maxFailures int
	logger      *slog.Logger

	mu       sync.RWMutex
	statuses map[string]*InstanceHealth

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a monitor probing on the given interval. Instances
// are marked unhealthy after 3 consecutive failures.
func NewMonitor(p Prober, interval time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Monitor{
		prober:      p,
		interval:    interval,
		maxFailures: 3,
		logger:      logger,
		statuses:    make(map[string]*InstanceHealth),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, name := range p.Instances() {
		m.statuses[name] = &InstanceHealth{Instance: name, Status: StatusUnknown}
	}
	return m
}

// Start launches the probe loop in a background goroutine. An immediate
// first round runs before the ticker takes over.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.CheckNow()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.CheckNow()
			}
		}
	}()
}

// Stop cancels the probe loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
}

// CheckNow runs one probe round over every visible instance.
func (m *Monitor) CheckNow() {
	for _, name := range m.prober.Instances() {
		err := m.prober.Probe(name)
		m.record(name, err)
	}
}

// record updates one instance's status from a probe outcome.
func (m *Monitor) record(name string, probeErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.statuses[name]
	if !ok {
		h = &InstanceHealth{Instance: name, Status: StatusUnknown}
		m.statuses[name] = h
	}
	h.LastCheck = time.Now()

	if probeErr == nil {
		if h.Status == StatusUnhealthy {
			m.logger.Info("instance recovered", slog.String("instance", name))
		}
		h.Status = StatusHealthy
		h.LastHealthy = h.LastCheck
		h.ConsecutiveFails = 0
		return
	}

	h.ConsecutiveFails++
	if h.ConsecutiveFails >= m.maxFailures && h.Status != StatusUnhealthy {
		h.Status = StatusUnhealthy
		m.logger.Warn("instance unhealthy",
			slog.String("instance", name),
			slog.Int("consecutive_fails", h.ConsecutiveFails),
			slog.Any("err", probeErr))
	}
}

// Snapshot returns a copy of every instance's health, sorted by
// instance name.
func (m *Monitor) Snapshot() []InstanceHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]InstanceHealth, 0, len(m.statuses))
	for _, h := range m.statuses {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out
}

// Healthy reports whether no instance is currently unhealthy.
func (m *Monitor) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, h := range m.statuses {
		if h.Status == StatusUnhealthy {
			return false
		}
	}
	return true
}
