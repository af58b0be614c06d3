package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthChecker reports PostgreSQL readiness.
type HealthChecker struct {
	pool *pgxpool.Pool
}

// NewHealthChecker creates a PostgreSQL health checker.
func NewHealthChecker(pool *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{pool: pool}
}

func (h *HealthChecker) Name() string { return "postgres" }

func (h *HealthChecker) Check(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
