package store

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/postgres"
)

// Open returns the store selected by cfg.Index.Backend. The returned close
// function releases any connection the store holds.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	switch cfg.Index.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.Index.Path), func() error { return nil }, nil
	case config.BackendPostgres:
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		s := NewPostgresStore(client)
		if err := s.EnsureSchema(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		return s, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
}
