package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"advisorhub.app/assistant/common/id"
	"advisorhub.app/assistant/core/config"
	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/store"
)

// HubSpotClient creates contacts in the user's HubSpot portal.
type HubSpotClient struct {
	client      *http.Client
	baseURL     string
	credentials store.CredentialStore
}

func NewHubSpotClient(cfg config.HubSpotConfig, credentials store.CredentialStore) *HubSpotClient {
	return &HubSpotClient{
		client:      &http.Client{Timeout: 20 * time.Second},
		baseURL:     cfg.BaseURL,
		credentials: credentials,
	}
}

func (c *HubSpotClient) CreateContact(ctx context.Context, userID int64, params CreateContactParams) (*model.Contact, error) {
	token, err := c.credentials.GetAccessToken(ctx, userID, NameHubSpot)
	if err != nil {
		return nil, &Error{Provider: NameHubSpot, Op: "create contact", Err: fmt.Errorf("resolve access token: %w", err)}
	}

	properties := map[string]string{"email": params.Email}
	if params.FirstName != "" {
		properties["firstname"] = params.FirstName
	}
	if params.LastName != "" {
		properties["lastname"] = params.LastName
	}
	if params.Company != "" {
		properties["company"] = params.Company
	}
	if params.Phone != "" {
		properties["phone"] = params.Phone
	}

	payload, err := json.Marshal(map[string]any{"properties": properties})
	if err != nil {
		return nil, fmt.Errorf("marshal hubspot payload: %w", err)
	}

	var hubspotID string
	err = withRetry(ctx, "hubspot.create_contact", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/crm/v3/objects/contacts", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build hubspot request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return &Error{Provider: NameHubSpot, Op: "create contact", Err: err}
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			return &Error{
				Provider:   NameHubSpot,
				Op:         "create contact",
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("%s", body),
			}
		}

		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &created); err != nil {
			return fmt.Errorf("decode hubspot response: %w", err)
		}
		hubspotID = created.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	contact := &model.Contact{
		ID:        id.New(),
		UserID:    userID,
		HubspotID: hubspotID,
	}
	if params.Email != "" {
		contact.Email = &params.Email
	}
	if params.FirstName != "" {
		contact.FirstName = &params.FirstName
	}
	if params.LastName != "" {
		contact.LastName = &params.LastName
	}
	if params.Company != "" {
		contact.Company = &params.Company
	}
	if params.Phone != "" {
		contact.Phone = &params.Phone
	}
	return contact, nil
}
