package postgres

import (
	"database/sql"
	"errors"
	"strings"
)

const dateLayout = "2006-01-02"

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
