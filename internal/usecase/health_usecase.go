package usecase

import (
	"context"
	"time"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthUsecase interface {
	Check(ctx context.Context) (map[string]string, bool)
}

type healthUsecase struct {
	db    Pinger
	redis func(ctx context.Context) error
}

// NewHealthUsecase reports database and cache reachability. redisCheck may be
// nil when no cache is configured.
func NewHealthUsecase(db Pinger, redisCheck func(ctx context.Context) error) HealthUsecase {
	return &healthUsecase{db: db, redis: redisCheck}
}

// Check returns a component map and whether the service can serve traffic.
// The cache is optional, so its failure degrades but does not fail the check.
func (u *healthUsecase) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok"}
	healthy := true

	if u.db == nil {
		status["database"] = "not configured"
	} else if err := u.db.Ping(ctx); err != nil {
		status["database"] = "unreachable"
		status["status"] = "unavailable"
		healthy = false
	}

	if u.redis != nil {
		if err := u.redis(ctx); err != nil {
			status["redis"] = "unavailable"
			if healthy {
				status["status"] = "degraded"
			}
		} else {
			status["redis"] = "ok"
		}
	}
	return status, healthy
}
