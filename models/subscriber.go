package models

const SubscriberStatusActive = "active"

// Custom fields written for abandoned checkouts.
const (
	FieldAbandonedCartProduct = "abandoned_cart_product"
	FieldAbandonedCartImage   = "abandoned_cart_image"
	FieldAbandonedCartURL     = "abandoned_cart_url"
)

// Subscriber is a mailing-list contact keyed by email.
type Subscriber struct {
	ID     string            `json:"id,omitempty"`
	Email  string            `json:"email"`
	Name   string            `json:"name,omitempty"`
	Status string            `json:"status,omitempty"`
	Groups []string          `json:"groups,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// MergeGroups returns the union of existing and added, keeping the order
// of first appearance and dropping empty ids.
func MergeGroups(existing []string, added ...string) []string {
	seen := make(map[string]struct{}, len(existing)+len(added))
	out := make([]string, 0, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, g := range list {
			if g == "" {
				continue
			}
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}
