package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuoteRun records one processing attempt of a Document.
type QuoteRun struct {
	ID              uuid.UUID       `json:"id"`
	Filename        string          `json:"filename"`
	ContentHash     string          `json:"content_hash"`
	Status          string          `json:"status"`
	ErrorMessage    *string         `json:"error_message,omitempty"`
	Fields          json.RawMessage `json:"fields,omitempty"`
	Analysis        string          `json:"analysis"`
	CostCheckStatus string          `json:"cost_check_status"`
	SheetAppended   bool            `json:"sheet_appended"`
	ModelName       string          `json:"model_name"`
	Pages           int             `json:"pages"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      *time.Time      `json:"finished_at,omitempty"`
}
