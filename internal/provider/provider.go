// Package provider holds the outbound Gmail, Google Calendar and HubSpot
// clients. Each client resolves a per-user access token from the credential
// store; token acquisition and refresh live in the sync layer.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"advisorhub.app/assistant/internal/model"
)

// Provider names, matching the credential store's provider column.
const (
	NameGoogle  = "google"
	NameHubSpot = "hubspot"
)

type SendEmailParams struct {
	To      string
	Subject string
	Body    string
}

type SendEmailResult struct {
	MessageID string
}

type EmailProvider interface {
	Send(ctx context.Context, userID int64, params SendEmailParams) (*SendEmailResult, error)
}

type CreateEventParams struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Location    string
}

type CreateEventResult struct {
	EventID string
}

type CalendarProvider interface {
	Create(ctx context.Context, userID int64, params CreateEventParams) (*CreateEventResult, error)
	Delete(ctx context.Context, userID int64, eventID string) error
}

type CreateContactParams struct {
	Email     string
	FirstName string
	LastName  string
	Company   string
	Phone     string
}

type CRMProvider interface {
	CreateContact(ctx context.Context, userID int64, params CreateContactParams) (*model.Contact, error)
}

// Error wraps a provider API failure with enough detail to classify it.
type Error struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the call could succeed. Rate limits and
// server errors are transient; auth and validation failures are not.
func (e *Error) Retryable() bool {
	if e.StatusCode == 429 || e.StatusCode >= 500 {
		return true
	}
	if e.StatusCode > 0 {
		return false
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr)
}

// IsRetryable classifies any error for the retry wrapper. Context
// cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var provErr *Error
	if errors.As(err, &provErr) {
		return provErr.Retryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
