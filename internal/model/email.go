package model

import "time"

// EmailMessage is a synced Gmail message. From keeps the provider's original
// "Display Name <addr>" form.
type EmailMessage struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	GmailID    string    `json:"gmail_id"`
	From       string    `json:"from"`
	To         []string  `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
}
