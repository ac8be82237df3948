package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
)

// CurrentSchemaVersion is stamped on every envelope written by this build.
const CurrentSchemaVersion = 1

const (
	KindSchedule    = "schedule"
	KindLeaderboard = "leaderboard"
)

// Envelope wraps a provider payload so the read side can evolve without rewriting history.
type Envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Kind          string          `json:"kind"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(kind string, payload []byte) Envelope {
	return Envelope{
		SchemaVersion: CurrentSchemaVersion,
		Kind:          kind,
		Payload:       append(json.RawMessage(nil), payload...),
	}
}

// Event is a cached golf tournament.
type Event struct {
	ID              string
	SportType       string
	Tour            string
	ProviderEventID string
	Name            string
	Status          fixture.Status
	EventDate       string
	EndDate         string
	Envelope        Envelope
	PayloadHash     string
	UpdatedAt       time.Time
}

func BuildID(tour, providerEventID string) string {
	return strings.ToLower(strings.TrimSpace(tour)) + ":" + strings.TrimSpace(providerEventID)
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Tour) == "" {
		return fmt.Errorf("tour is required")
	}
	if strings.TrimSpace(e.ProviderEventID) == "" {
		return fmt.Errorf("provider event id is required")
	}
	if strings.TrimSpace(e.EventDate) == "" {
		return fmt.Errorf("event date is required")
	}
	if !e.Status.Valid() {
		return fmt.Errorf("invalid status %q", e.Status)
	}
	return nil
}

// PayloadHash returns the hex sha256 of an envelope payload.
func PayloadHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
