package history

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/tokenscope/internal/config"
	"github.com/irfndi/tokenscope/internal/database"
)

// Open builds the configured backend. The returned close function releases
// any connection held by the store.
func Open(ctx context.Context, cfg config.HistoryConfig, logger logrus.FieldLogger) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.HistoryMemory:
		return NewMemoryStore(), noop, nil
	case config.HistoryFile, "":
		path := cfg.FilePath
		if path == "" {
			path = ".tokenscope/history.json"
		}
		return NewFileStore(path), noop, nil
	case config.HistoryRedis:
		conn, err := database.NewRedisConnection(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(conn.Client, cfg.Key), conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported history backend %q", cfg.Backend)
	}
}
