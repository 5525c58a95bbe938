package sqlite

import (
	"fmt"
	"time"
)

// Manifests are keyed by the UTC calendar day they were discovered on.
const dayLayout = "2006-01-02"

func dayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

func parseTimestamp(value, column string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", column, err)
	}
	return t, nil
}
