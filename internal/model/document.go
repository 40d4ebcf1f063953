package model

import "time"

// Document sources for retrieval snippets.
const (
	DocSourceEmail       = "email"
	DocSourceContact     = "hubspot_contact"
	DocSourceContactNote = "hubspot_note"
	DocSourceCalendar    = "calendar"
)

// RelevantDocument is a retrieval hit: a snippet of synced content plus
// enough metadata to label it in the model's context block.
type RelevantDocument struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
	Score    float64          `json:"score"`
}

type DocumentMetadata struct {
	Source      string     `json:"source"`
	SourceID    string     `json:"source_id,omitempty"`
	Title       string     `json:"title,omitempty"`
	From        string     `json:"from,omitempty"`
	ContactName string     `json:"contact_name,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}
