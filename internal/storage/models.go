package storage

import (
	"encoding/json"
	"time"
)

// AlertRecord is a processed alert persisted for auditing. One row per
// Process call, whatever the outcome.
type AlertRecord struct {
	ID        int64
	Title     string
	Severity  string
	Category  string
	Component string
	Status    string
	Metadata  json.RawMessage
	CreatedAt time.Time
}
