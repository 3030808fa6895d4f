package notestore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"example.com/friendship-notes/internal/config"
	"example.com/friendship-notes/internal/db"
)

// Open builds the backend named by cfg.StoreBackend.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Info("Using in-memory note store")
		return NewMemory(), nil

	case config.BackendFile:
		logger.Info("Using file note store", zap.String("path", cfg.NotesFile))
		return NewFile(cfg.NotesFile), nil

	case config.BackendMongo:
		m, err := OpenMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		logger.Info("Using mongo note store",
			zap.String("database", MongoDatabaseName(cfg.MongoURI)),
			zap.String("collection", mongoCollection))
		return m, nil

	case config.BackendPostgres:
		conn, err := db.Open(ctx, db.DriverPostgres, cfg.DatabaseURL, db.Pool{
			MaxOpen:     cfg.MaxOpenConns,
			MaxIdle:     cfg.MaxIdleConns,
			MaxLifetime: cfg.ConnMaxLifetime,
			MaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, err
		}
		return newSQLBackend(ctx, conn, logger)

	case config.BackendSQLite:
		// sqlite allows a single writer; one connection avoids SQLITE_BUSY.
		conn, err := db.Open(ctx, db.DriverSQLite, cfg.SQLitePath, db.Pool{
			MaxOpen:     1,
			MaxIdle:     1,
			MaxLifetime: cfg.ConnMaxLifetime,
			MaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, err
		}
		return newSQLBackend(ctx, conn, logger)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func newSQLBackend(ctx context.Context, conn *db.DB, logger *zap.Logger) (Backend, error) {
	s, err := NewSQL(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger.Info("Using sql note store", zap.String("driver", conn.Driver))
	return s, nil
}
