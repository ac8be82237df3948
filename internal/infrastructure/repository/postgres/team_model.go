package postgres

import "time"

type teamInsertModel struct {
	ProviderID   int64     `db:"provider_id"`
	SportType    string    `db:"sport_type"`
	Name         string    `db:"name"`
	ShortName    string    `db:"short_name"`
	Abbreviation string    `db:"abbreviation"`
	Logo         string    `db:"logo"`
	UpdatedAt    time.Time `db:"updated_at"`
}
