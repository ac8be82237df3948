package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
	"github.com/riskibarqy/matchday-sync/internal/platform/batch"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/metrics"
)

const defaultUpsertBatchSize = 100

type UpsertResult struct {
	Written       int
	Batches       int
	FailedBatches int
	Errors        []error
}

// FixtureCache writes normalized fixtures in bounded chunks. A rejected chunk is
// reported and skipped; the chunks after it are still written.
type FixtureCache struct {
	fixtures  fixture.Repository
	teams     team.Repository
	batchSize int
	logger    *logging.Logger
}

func NewFixtureCache(fixtures fixture.Repository, teams team.Repository, batchSize int, logger *logging.Logger) *FixtureCache {
	if batchSize < 1 {
		batchSize = defaultUpsertBatchSize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FixtureCache{
		fixtures:  fixtures,
		teams:     teams,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Upsert writes items keyed by (provider id, sport type). known supplies provider
// team rows (with abbreviations); teams missing from it are derived from the fixture sides.
func (c *FixtureCache) Upsert(ctx context.Context, items []fixture.Fixture, known ...team.Team) UpsertResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureCache.Upsert")
	defer span.End()

	var result UpsertResult
	items = collapseDuplicates(items)
	if len(items) == 0 {
		return result
	}

	knownByKey := make(map[fixture.Key]team.Team, len(known))
	for _, item := range known {
		knownByKey[fixture.Key{ProviderID: item.ProviderID, SportType: item.SportType}] = item
	}

	chunks := batch.Chunks(items, c.batchSize)
	result.Batches = len(chunks)
	for idx, chunk := range chunks {
		if err := c.fixtures.UpsertBatch(ctx, chunk); err != nil {
			metrics.RecordCacheWriteFailure("fixtures")
			c.logger.ErrorContext(ctx, "upsert fixture batch failed",
				"batch", idx+1,
				"batches", len(chunks),
				"size", len(chunk),
				"error", err,
			)
			result.FailedBatches++
			result.Errors = append(result.Errors, fmt.Errorf("%w: batch %d/%d: %w", ErrCacheWriteFailed, idx+1, len(chunks), err))
			continue
		}
		result.Written += len(chunk)
		c.upsertTeams(ctx, chunk, knownByKey)
	}

	return result
}

func (c *FixtureCache) upsertTeams(ctx context.Context, chunk []fixture.Fixture, known map[fixture.Key]team.Team) {
	if c.teams == nil {
		return
	}

	seen := make(map[fixture.Key]struct{}, len(chunk)*2)
	rows := make([]team.Team, 0, len(chunk)*2)
	for _, item := range chunk {
		for _, side := range []fixture.Side{item.Home, item.Away} {
			key := fixture.Key{ProviderID: side.TeamID, SportType: item.SportType}
			if _, ok := seen[key]; ok || side.TeamID <= 0 {
				continue
			}
			seen[key] = struct{}{}

			row, ok := known[key]
			if !ok {
				row = team.Team{
					ProviderID:   side.TeamID,
					SportType:    item.SportType,
					Name:         side.Name,
					ShortName:    side.ShortName,
					Abbreviation: team.DeriveAbbreviation(side.Name),
					Logo:         side.Logo,
				}
			}
			if row.Validate() != nil {
				continue
			}
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return
	}

	if err := c.teams.UpsertTeams(ctx, rows); err != nil {
		metrics.RecordCacheWriteFailure("teams")
		c.logger.WarnContext(ctx, "upsert referenced teams failed", "teams", len(rows), "error", err)
	}
}

// collapseDuplicates keeps the last record per key at the position of its first occurrence.
func collapseDuplicates(items []fixture.Fixture) []fixture.Fixture {
	if len(items) < 2 {
		return items
	}
	pos := make(map[fixture.Key]int, len(items))
	out := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		if idx, ok := pos[item.Key()]; ok {
			out[idx] = item
			continue
		}
		pos[item.Key()] = len(out)
		out = append(out, item)
	}
	return out
}
