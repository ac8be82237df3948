package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates identifiers for sync runs and queue deduplication.
type Generator interface {
	NewID() (uuid.UUID, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a time-ordered v7 UUID so run ids sort by start time.
func (g *UUIDGenerator) NewID() (uuid.UUID, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate uuid v7: %w", err)
	}
	return value, nil
}

// Fixed always returns the same id. Useful in tests.
type Fixed uuid.UUID

func (f Fixed) NewID() (uuid.UUID, error) {
	return uuid.UUID(f), nil
}
