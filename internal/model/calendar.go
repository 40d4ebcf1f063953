package model

import "time"

type CalendarEvent struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	GoogleEventID string     `json:"google_event_id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	Attendees     []string   `json:"attendees,omitempty"`
	Location      *string    `json:"location,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
