package model

import (
	"strings"
	"time"
)

// Contact is a synced HubSpot contact.
type Contact struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	HubspotID string    `json:"hubspot_id"`
	Email     *string   `json:"email,omitempty"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	Company   *string   `json:"company,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns "First Last", falling back to the email address and
// then to "Unknown" when the contact has no name on file.
func (c Contact) DisplayName() string {
	var parts []string
	if c.FirstName != nil && *c.FirstName != "" {
		parts = append(parts, *c.FirstName)
	}
	if c.LastName != nil && *c.LastName != "" {
		parts = append(parts, *c.LastName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if c.Email != nil && *c.Email != "" {
		return *c.Email
	}
	return "Unknown"
}

// ContactNote is a synced HubSpot engagement note.
type ContactNote struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	ContactID     *int64    `json:"contact_id,omitempty"`
	HubspotNoteID string    `json:"hubspot_note_id"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}
