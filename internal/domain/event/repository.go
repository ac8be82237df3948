package event

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, items []Event) error
	ListByTour(ctx context.Context, tour, fromDate, toDate string) ([]Event, error)
	ListLive(ctx context.Context, tour string) ([]Event, error)
}
