// cmd/admissionctl/deps.go
package main

import (
	"context"
	"fmt"

	"admission-workers/internal/common/config"
	"admission-workers/internal/common/database"
	"admission-workers/internal/repository"
	"admission-workers/internal/selection"
)

// backend holds the connections one command needs. close releases them in
// reverse order of opening.
type backend struct {
	pg      *database.PostgresClient
	redis   *database.RedisClient
	closers []func() error
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

func openPostgres(ctx context.Context, b *backend) error {
	pg, err := database.NewPostgres(appCfg.Database.Postgres)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, pg.Close)
	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	b.pg = pg
	return nil
}

func openRedis(ctx context.Context, b *backend) error {
	rc, err := database.NewRedis(appCfg.Database.Redis)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, rc.Close)
	if err := rc.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	b.redis = rc
	return nil
}

// newSelectionService opens Postgres and Redis and builds the same service
// the selection workers use.
func newSelectionService(ctx context.Context) (*selection.Service, *backend, error) {
	b := &backend{}
	if err := openPostgres(ctx, b); err != nil {
		b.close()
		return nil, nil, err
	}
	if err := openRedis(ctx, b); err != nil {
		b.close()
		return nil, nil, err
	}

	quota, err := appCfg.Admission.QuotaConfig()
	if err != nil {
		b.close()
		return nil, nil, err
	}

	service := selection.NewService(selection.Options{
		Repository: repository.NewApplications(b.pg.DB),
		Redis:      b.redis,
		Quota:      quota,
		LockTTL:    config.GetDuration(appCfg.Admission.LockTTL),
		Logger:     log,
	})
	return service, b, nil
}
