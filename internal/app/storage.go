package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	schema "github.com/riskibarqy/matchday-sync/db"
	"github.com/riskibarqy/matchday-sync/internal/config"
	"github.com/riskibarqy/matchday-sync/internal/domain/event"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/matchday-sync/internal/platform/cache"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	dbMaxOpenConns    = 10
	dbMaxIdleConns    = 5
	dbConnMaxIdleTime = 5 * time.Minute
	dbPingTimeout     = 5 * time.Second
)

type repositories struct {
	fixtures fixture.Repository
	teams    team.Repository
	events   event.Repository
	runs     syncrun.Repository
}

func openRepositories(cfg config.Config, logger *logging.Logger) (repositories, func() error, error) {
	var (
		repos   repositories
		cleanup = func() error { return nil }
	)

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		repos = repositories{
			fixtures: memory.NewFixtureRepository(nil),
			teams:    memory.NewTeamRepository(),
			events:   memory.NewEventRepository(),
			runs:     memory.NewSyncRunRepository(),
		}
		logger.Warn("using in-memory storage, cached data is lost on restart")
	default:
		db, err := openPostgres(cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		repos = repositories{
			fixtures: postgres.NewFixtureRepository(db),
			teams:    postgres.NewTeamRepository(db),
			events:   postgres.NewEventRepository(db),
			runs:     postgres.NewSyncRunRepository(db),
		}
		cleanup = db.Close
		dsn := schema.ParseDSN(cfg.DBURL)
		logger.Info("postgres storage ready", "db_name", dsn.Name(), "db_host", dsn.Host())
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL, basecache.WithName("read"))
		repos.fixtures = cache.NewFixtureRepository(repos.fixtures, store)
		repos.events = cache.NewEventRepository(repos.events, store)
		logger.Info("read cache enabled", "ttl", cfg.CacheTTL.String())
	}

	return repos, cleanup, nil
}

func openPostgres(cfg config.Config) (*sqlx.DB, error) {
	dsn := schema.ParseDSN(cfg.DBURL)
	if cfg.DBDisablePreparedBinary {
		dsn = dsn.WithoutPreparedBinary()
	}

	db, err := otelsqlx.Open("postgres", dsn.String(),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dsn.Name()),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxIdleTime(dbConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}
