package app

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-detailing-bookings/internal/config"
	"github.com/ariefcatur/go-detailing-bookings/internal/postgres"
	"github.com/ariefcatur/go-detailing-bookings/internal/redisx"
	"github.com/ariefcatur/go-detailing-bookings/internal/state"
)

// OpenStore builds the client-state backend named by cfg.StateBackend.
// The returned close func is never nil.
func OpenStore(ctx context.Context, cfg config.Config) (state.Store, func(), error) {
	switch cfg.StateBackend {
	case "", "file":
		return state.NewFile(cfg.StateFile), func() {}, nil
	case "memory":
		return state.NewMemory(), func() {}, nil
	case "redis":
		rdb := redisx.New(cfg.RedisAddr)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return &redisx.Store{RDB: rdb}, func() { _ = rdb.Close() }, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		st := &postgres.Store{DB: db}
		if err := st.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return st, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
}
