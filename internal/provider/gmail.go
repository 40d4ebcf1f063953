package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"advisorhub.app/assistant/core/config"
	"advisorhub.app/assistant/internal/store"
)

// GmailClient sends mail through the Gmail REST API on behalf of a user.
type GmailClient struct {
	client      *http.Client
	baseURL     string
	credentials store.CredentialStore
}

func NewGmailClient(cfg config.GoogleConfig, credentials store.CredentialStore) *GmailClient {
	return &GmailClient{
		client:      &http.Client{Timeout: 20 * time.Second},
		baseURL:     cfg.GmailBaseURL,
		credentials: credentials,
	}
}

func (c *GmailClient) Send(ctx context.Context, userID int64, params SendEmailParams) (*SendEmailResult, error) {
	token, err := c.credentials.GetAccessToken(ctx, userID, NameGoogle)
	if err != nil {
		return nil, &Error{Provider: NameGoogle, Op: "send email", Err: fmt.Errorf("resolve access token: %w", err)}
	}

	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		params.To, params.Subject, params.Body)
	payload, err := json.Marshal(map[string]string{
		"raw": base64.URLEncoding.EncodeToString([]byte(raw)),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gmail payload: %w", err)
	}

	var result SendEmailResult
	err = withRetry(ctx, "gmail.send", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/gmail/v1/users/me/messages/send", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build gmail request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return &Error{Provider: NameGoogle, Op: "send email", Err: err}
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return &Error{
				Provider:   NameGoogle,
				Op:         "send email",
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("%s", body),
			}
		}

		var sent struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &sent); err != nil {
			return fmt.Errorf("decode gmail response: %w", err)
		}
		result.MessageID = sent.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
