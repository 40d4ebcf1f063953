package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"advisorhub.app/assistant/core/config"
	"advisorhub.app/assistant/internal/store"
)

// CalendarClient manages events on the user's primary Google calendar.
type CalendarClient struct {
	client      *http.Client
	baseURL     string
	credentials store.CredentialStore
}

func NewCalendarClient(cfg config.GoogleConfig, credentials store.CredentialStore) *CalendarClient {
	return &CalendarClient{
		client:      &http.Client{Timeout: 20 * time.Second},
		baseURL:     cfg.CalendarBaseURL,
		credentials: credentials,
	}
}

func (c *CalendarClient) Create(ctx context.Context, userID int64, params CreateEventParams) (*CreateEventResult, error) {
	token, err := c.credentials.GetAccessToken(ctx, userID, NameGoogle)
	if err != nil {
		return nil, &Error{Provider: NameGoogle, Op: "create event", Err: fmt.Errorf("resolve access token: %w", err)}
	}

	type dateTime struct {
		DateTime string `json:"dateTime"`
	}
	event := map[string]any{
		"summary":     params.Title,
		"description": params.Description,
		"start":       dateTime{params.Start.Format(time.RFC3339)},
		"end":         dateTime{params.End.Format(time.RFC3339)},
	}
	if params.Location != "" {
		event["location"] = params.Location
	}
	if len(params.Attendees) > 0 {
		attendees := make([]map[string]string, len(params.Attendees))
		for i, email := range params.Attendees {
			attendees[i] = map[string]string{"email": email}
		}
		event["attendees"] = attendees
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal calendar payload: %w", err)
	}

	var result CreateEventResult
	err = withRetry(ctx, "calendar.create", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/calendar/v3/calendars/primary/events", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build calendar request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return &Error{Provider: NameGoogle, Op: "create event", Err: err}
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return &Error{
				Provider:   NameGoogle,
				Op:         "create event",
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("%s", body),
			}
		}

		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &created); err != nil {
			return fmt.Errorf("decode calendar response: %w", err)
		}
		result.EventID = created.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *CalendarClient) Delete(ctx context.Context, userID int64, eventID string) error {
	token, err := c.credentials.GetAccessToken(ctx, userID, NameGoogle)
	if err != nil {
		return &Error{Provider: NameGoogle, Op: "delete event", Err: fmt.Errorf("resolve access token: %w", err)}
	}

	return withRetry(ctx, "calendar.delete", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
			c.baseURL+"/calendar/v3/calendars/primary/events/"+url.PathEscape(eventID), nil)
		if err != nil {
			return fmt.Errorf("build calendar request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.client.Do(req)
		if err != nil {
			return &Error{Provider: NameGoogle, Op: "delete event", Err: err}
		}
		defer resp.Body.Close()

		// 404/410 mean the event is already gone; treat as success.
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			return nil
		}
		if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return &Error{
				Provider:   NameGoogle,
				Op:         "delete event",
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("%s", body),
			}
		}
		return nil
	})
}
