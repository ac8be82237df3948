package postgres

import "time"

type eventTableModel struct {
	ID              string     `db:"id"`
	SportType       string     `db:"sport_type"`
	Tour            string     `db:"tour"`
	ProviderEventID string     `db:"provider_event_id"`
	Name            string     `db:"name"`
	Status          string     `db:"status"`
	EventDate       time.Time  `db:"event_date"`
	EndDate         *time.Time `db:"end_date"`
	Envelope        []byte     `db:"envelope"`
	PayloadHash     string     `db:"payload_hash"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

type eventInsertModel struct {
	ID              string    `db:"id"`
	SportType       string    `db:"sport_type"`
	Tour            string    `db:"tour"`
	ProviderEventID string    `db:"provider_event_id"`
	Name            string    `db:"name"`
	Status          string    `db:"status"`
	EventDate       string    `db:"event_date"`
	EndDate         *string   `db:"end_date"`
	Envelope        string    `db:"envelope"`
	PayloadHash     string    `db:"payload_hash"`
	UpdatedAt       time.Time `db:"updated_at"`
}
