package mailinglist

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/brianfeister/rawelegancecreations/models"
)

const mailerLiteBaseURL = "https://connect.mailerlite.com/api"

// MailerLiteClient talks to the MailerLite subscribers API. Its upsert
// endpoint creates or updates by email and only ever adds group
// memberships.
type MailerLiteClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewMailerLiteClient(apiKey string) *MailerLiteClient {
	return &MailerLiteClient{
		apiKey:     apiKey,
		baseURL:    mailerLiteBaseURL,
		httpClient: newHTTPClient(),
	}
}

// WithBaseURL points the client at another host, e.g. a test server.
func (c *MailerLiteClient) WithBaseURL(baseURL string) *MailerLiteClient {
	c.baseURL = baseURL
	return c
}

type mailerLiteGroup struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type mailerLiteSubscriber struct {
	ID     string                 `json:"id"`
	Email  string                 `json:"email"`
	Status string                 `json:"status"`
	Fields map[string]interface{} `json:"fields"`
	Groups []mailerLiteGroup      `json:"groups"`
}

type mailerLiteResponse struct {
	Data mailerLiteSubscriber `json:"data"`
}

type mailerLiteUpsertRequest struct {
	Email  string            `json:"email"`
	Fields map[string]string `json:"fields,omitempty"`
	Groups []string          `json:"groups,omitempty"`
	Status string            `json:"status,omitempty"`
}

func (c *MailerLiteClient) auth(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// GetSubscriber returns nil when the email is not subscribed.
func (c *MailerLiteClient) GetSubscriber(ctx context.Context, email string) (*models.Subscriber, error) {
	var resp mailerLiteResponse
	err := doJSON(ctx, c.httpClient, "mailerlite", http.MethodGet, c.baseURL+"/subscribers/"+url.PathEscape(email), c.auth, nil, &resp)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mailerlite get subscriber: %w", err)
	}
	return resp.Data.toSubscriber(), nil
}

func (c *MailerLiteClient) UpsertSubscriber(ctx context.Context, sub models.Subscriber) (*models.Subscriber, error) {
	fields := make(map[string]string, len(sub.Fields)+1)
	for k, v := range sub.Fields {
		fields[k] = v
	}
	if sub.Name != "" {
		fields["name"] = sub.Name
	}

	body := mailerLiteUpsertRequest{
		Email:  sub.Email,
		Fields: fields,
		Groups: sub.Groups,
		Status: sub.Status,
	}

	var resp mailerLiteResponse
	if err := doJSON(ctx, c.httpClient, "mailerlite", http.MethodPost, c.baseURL+"/subscribers", c.auth, body, &resp); err != nil {
		return nil, fmt.Errorf("mailerlite upsert subscriber: %w", err)
	}
	return resp.Data.toSubscriber(), nil
}

func (s mailerLiteSubscriber) toSubscriber() *models.Subscriber {
	out := &models.Subscriber{
		ID:     s.ID,
		Email:  s.Email,
		Status: s.Status,
		Fields: make(map[string]string, len(s.Fields)),
	}
	for k, v := range s.Fields {
		if v == nil {
			continue
		}
		str := fmt.Sprint(v)
		if k == "name" {
			out.Name = str
			continue
		}
		out.Fields[k] = str
	}
	for _, g := range s.Groups {
		out.Groups = append(out.Groups, g.ID)
	}
	return out
}
