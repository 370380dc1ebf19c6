package mailinglist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brianfeister/rawelegancecreations/config"
	"github.com/brianfeister/rawelegancecreations/models"
)

// Client upserts subscribers by email on a mailing-list provider.
type Client interface {
	GetSubscriber(ctx context.Context, email string) (*models.Subscriber, error)
	UpsertSubscriber(ctx context.Context, sub models.Subscriber) (*models.Subscriber, error)
}

// APIError is a non-2xx provider response.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// NewFromConfig returns the client selected by MAILING_LIST_PROVIDER.
func NewFromConfig(cfg *config.Config) (Client, error) {
	switch cfg.MailingListProvider {
	case config.ProviderMailerLite:
		return NewMailerLiteClient(cfg.MailerLiteSecret), nil
	case config.ProviderMailchimp:
		return NewMailchimpClient(cfg.MailchimpAPIKey, cfg.MailchimpListID)
	default:
		return nil, fmt.Errorf("unknown mailing list provider %q", cfg.MailingListProvider)
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// doJSON sends body as JSON and decodes a 2xx response into out.
func doJSON(ctx context.Context, httpClient *http.Client, provider, method, url string, auth func(*http.Request), body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	auth(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Provider: provider, StatusCode: resp.StatusCode, Body: string(respBytes)}
	}

	if out != nil && len(respBytes) > 0 {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
