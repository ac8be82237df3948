package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/matchday-sync/internal/domain/event"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

type EventRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db, now: time.Now}
}

// UpsertMany replaces the whole envelope; rows whose payload hash and status are unchanged are left alone.
func (r *EventRepository) UpsertMany(ctx context.Context, items []event.Event) error {
	if len(items) == 0 {
		return nil
	}

	now := r.now().UTC()
	models := make([]eventInsertModel, 0, len(items))
	for _, item := range items {
		envelope, err := sonic.Marshal(item.Envelope)
		if err != nil {
			return fmt.Errorf("marshal event envelope id=%s: %w", item.ID, err)
		}
		models = append(models, eventInsertModel{
			ID:              item.ID,
			SportType:       item.SportType,
			Tour:            item.Tour,
			ProviderEventID: item.ProviderEventID,
			Name:            item.Name,
			Status:          string(item.Status),
			EventDate:       item.EventDate,
			EndDate:         optionalString(item.EndDate),
			Envelope:        string(envelope),
			PayloadHash:     item.PayloadHash,
			UpdatedAt:       now,
		})
	}

	query, args, err := qb.InsertModels("events", models, `ON CONFLICT (id)
DO UPDATE SET
    name = EXCLUDED.name,
    status = EXCLUDED.status,
    event_date = EXCLUDED.event_date,
    end_date = EXCLUDED.end_date,
    envelope = EXCLUDED.envelope,
    payload_hash = EXCLUDED.payload_hash,
    updated_at = EXCLUDED.updated_at
WHERE events.payload_hash IS DISTINCT FROM EXCLUDED.payload_hash
   OR events.status IS DISTINCT FROM EXCLUDED.status`)
	if err != nil {
		return fmt.Errorf("build upsert events query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert events count=%d: %w", len(items), err)
	}
	return nil
}

func (r *EventRepository) ListByTour(ctx context.Context, tour, fromDate, toDate string) ([]event.Event, error) {
	conditions := []qb.Condition{qb.Eq("tour", tour)}
	if fromDate != "" {
		conditions = append(conditions, qb.Gte("event_date", fromDate))
	}
	if toDate != "" {
		conditions = append(conditions, qb.Lte("event_date", toDate))
	}
	return r.list(ctx, "by tour", conditions...)
}

func (r *EventRepository) ListLive(ctx context.Context, tour string) ([]event.Event, error) {
	return r.list(ctx, "live",
		qb.Eq("tour", tour),
		qb.Any("status", pq.Array(liveStatusValues())),
	)
}

func (r *EventRepository) list(ctx context.Context, label string, conditions ...qb.Condition) ([]event.Event, error) {
	query, args, err := qb.Select("*").From("events").
		Where(conditions...).
		OrderBy("event_date ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select events %s query: %w", label, err)
	}

	var rows []eventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select events %s: %w", label, err)
	}

	out := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		item, err := eventFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func eventFromRow(row eventTableModel) (event.Event, error) {
	var envelope event.Envelope
	if len(row.Envelope) > 0 {
		if err := sonic.Unmarshal(row.Envelope, &envelope); err != nil {
			return event.Event{}, fmt.Errorf("decode event envelope id=%s: %w", row.ID, err)
		}
	}

	item := event.Event{
		ID:              row.ID,
		SportType:       row.SportType,
		Tour:            row.Tour,
		ProviderEventID: row.ProviderEventID,
		Name:            row.Name,
		Status:          fixture.Status(row.Status),
		EventDate:       row.EventDate.Format(dateLayout),
		Envelope:        envelope,
		PayloadHash:     row.PayloadHash,
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.EndDate != nil {
		item.EndDate = row.EndDate.Format(dateLayout)
	}
	return item, nil
}
