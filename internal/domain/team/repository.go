package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	UpsertTeams(ctx context.Context, items []Team) error
}
