package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/planpilot/internal/resilience"
)

// HealthFunc reports whether a dependency is healthy.
type HealthFunc func(ctx context.Context) bool

// Checker periodically samples database health and upstream circuit state
// into gauges.
type Checker struct {
	metrics  *Metrics
	breakers *resilience.ServiceBreakers
	dbHealth HealthFunc
	interval time.Duration
}

// NewChecker creates a background checker. Nil breakers or dbHealth are
// skipped.
func NewChecker(m *Metrics, breakers *resilience.ServiceBreakers, dbHealth HealthFunc, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Checker{metrics: m, breakers: breakers, dbHealth: dbHealth, interval: interval}
}

// Run samples once immediately and then on every tick. It blocks until ctx
// is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting health checker", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.check(ctx, log)
	for {
		select {
		case <-ctx.Done():
			log.Info("health checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	if c.dbHealth != nil {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		up := c.dbHealth(checkCtx)
		cancel()
		c.metrics.DBUp(up)
		if !up {
			log.Warn("monitoring: database unhealthy")
		}
	}

	if c.breakers == nil {
		return
	}
	for service, state := range c.breakers.States() {
		open := state != resilience.CircuitClosed
		c.metrics.UpstreamOpen(service, open)
		if open {
			log.Warn("monitoring: upstream circuit not closed",
				zap.String("service", service),
				zap.String("state", state.String()),
			)
		}
	}
}
