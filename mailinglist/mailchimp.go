package mailinglist

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/brianfeister/rawelegancecreations/models"
)

// mailchimpMergeFields maps subscriber fields onto audience merge tags.
var mailchimpMergeFields = map[string]string{
	models.FieldAbandonedCartProduct: "ACPRODUCT",
	models.FieldAbandonedCartImage:   "ACIMAGE",
	models.FieldAbandonedCartURL:     "ACURL",
}

// MailchimpClient talks to the Mailchimp Marketing API. Groups are
// modelled as member tags on a single audience.
type MailchimpClient struct {
	apiKey     string
	listID     string
	baseURL    string
	httpClient *http.Client
}

// NewMailchimpClient derives the data center from the "-dc" suffix of
// apiKey.
func NewMailchimpClient(apiKey, listID string) (*MailchimpClient, error) {
	idx := strings.LastIndex(apiKey, "-")
	if idx < 0 || idx == len(apiKey)-1 {
		return nil, fmt.Errorf("mailchimp API key has no data center suffix")
	}
	return &MailchimpClient{
		apiKey:     apiKey,
		listID:     listID,
		baseURL:    fmt.Sprintf("https://%s.api.mailchimp.com/3.0", apiKey[idx+1:]),
		httpClient: newHTTPClient(),
	}, nil
}

// WithBaseURL points the client at another host, e.g. a test server.
func (c *MailchimpClient) WithBaseURL(baseURL string) *MailchimpClient {
	c.baseURL = baseURL
	return c
}

type mailchimpTag struct {
	ID     int    `json:"id,omitempty"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

type mailchimpMember struct {
	ID           string                 `json:"id,omitempty"`
	EmailAddress string                 `json:"email_address"`
	Status       string                 `json:"status,omitempty"`
	StatusIfNew  string                 `json:"status_if_new,omitempty"`
	MergeFields  map[string]interface{} `json:"merge_fields,omitempty"`
	Tags         []mailchimpTag         `json:"tags,omitempty"`
}

type mailchimpTagsRequest struct {
	Tags []mailchimpTag `json:"tags"`
}

func (c *MailchimpClient) auth(req *http.Request) {
	req.SetBasicAuth("storefront", c.apiKey)
}

// SubscriberHash is the member id Mailchimp derives from an email.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func (c *MailchimpClient) memberURL(email string) string {
	return fmt.Sprintf("%s/lists/%s/members/%s", c.baseURL, c.listID, SubscriberHash(email))
}

// GetSubscriber returns nil when the email is not in the audience.
func (c *MailchimpClient) GetSubscriber(ctx context.Context, email string) (*models.Subscriber, error) {
	var member mailchimpMember
	err := doJSON(ctx, c.httpClient, "mailchimp", http.MethodGet, c.memberURL(email), c.auth, nil, &member)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mailchimp get member: %w", err)
	}
	return member.toSubscriber(), nil
}

// UpsertSubscriber writes the member with PUT, then activates its group
// tags. Existing tags are left untouched.
func (c *MailchimpClient) UpsertSubscriber(ctx context.Context, sub models.Subscriber) (*models.Subscriber, error) {
	merge := make(map[string]interface{}, len(sub.Fields)+1)
	if sub.Name != "" {
		merge["FNAME"] = sub.Name
	}
	for k, v := range sub.Fields {
		if tag, ok := mailchimpMergeFields[k]; ok {
			merge[tag] = v
		}
	}

	status := toMailchimpStatus(sub.Status)
	body := mailchimpMember{
		EmailAddress: sub.Email,
		Status:       status,
		StatusIfNew:  status,
		MergeFields:  merge,
	}

	var member mailchimpMember
	if err := doJSON(ctx, c.httpClient, "mailchimp", http.MethodPut, c.memberURL(sub.Email), c.auth, body, &member); err != nil {
		return nil, fmt.Errorf("mailchimp upsert member: %w", err)
	}

	if len(sub.Groups) > 0 {
		tags := mailchimpTagsRequest{}
		for _, g := range sub.Groups {
			tags.Tags = append(tags.Tags, mailchimpTag{Name: g, Status: "active"})
		}
		if err := doJSON(ctx, c.httpClient, "mailchimp", http.MethodPost, c.memberURL(sub.Email)+"/tags", c.auth, tags, nil); err != nil {
			return nil, fmt.Errorf("mailchimp tag member: %w", err)
		}
	}

	out := member.toSubscriber()
	out.Groups = models.MergeGroups(out.Groups, sub.Groups...)
	return out, nil
}

func toMailchimpStatus(status string) string {
	if status == "" || status == models.SubscriberStatusActive {
		return "subscribed"
	}
	return status
}

func (m mailchimpMember) toSubscriber() *models.Subscriber {
	out := &models.Subscriber{
		ID:     m.ID,
		Email:  m.EmailAddress,
		Name:   mergeString(m.MergeFields["FNAME"]),
		Status: m.Status,
		Fields: make(map[string]string),
	}
	if out.Status == "subscribed" {
		out.Status = models.SubscriberStatusActive
	}
	for field, tag := range mailchimpMergeFields {
		if v := mergeString(m.MergeFields[tag]); v != "" {
			out.Fields[field] = v
		}
	}
	for _, t := range m.Tags {
		out.Groups = append(out.Groups, t.Name)
	}
	return out
}

// mergeString returns v when it is a string. Address and other structured
// merge fields are ignored.
func mergeString(v interface{}) string {
	s, _ := v.(string)
	return s
}
