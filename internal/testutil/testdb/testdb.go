//go:build testutil
// +build testutil

package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Pandoravox1/attendify-sub000/internal/db"
)

// Postgres is a throwaway database container with the schema migrated.
type Postgres struct {
	DB        *sql.DB
	container *postgres.PostgresContainer
	cancel    context.CancelFunc
}

// Close drops the connection pool and removes the container.
func (p *Postgres) Close() {
	if p.DB != nil {
		_ = p.DB.Close()
	}
	if p.container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = p.container.Terminate(ctx)
	}
	p.cancel()
}

// Start runs postgres:17-alpine and applies the embedded migrations.
func Start(ctx context.Context) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	p := &Postgres{cancel: cancel}

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("attendify"),
		postgres.WithUsername("attendify"),
		postgres.WithPassword("attendify"),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start postgres: %w", err)
	}
	p.container = pg

	if err := p.open(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) open(ctx context.Context) error {
	uri, err := p.container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("connection string: %w", err)
	}
	if p.DB, err = sql.Open("postgres", uri); err != nil {
		return err
	}
	if err := waitReady(ctx, p.DB, 20*time.Second); err != nil {
		return err
	}
	return db.Migrate(ctx, p.DB)
}

// waitReady pings until the server accepts connections.
func waitReady(ctx context.Context, database *sql.DB, within time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, within)
	defer cancel()
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		err := database.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres not ready: %w", err)
		case <-tick.C:
		}
	}
}
