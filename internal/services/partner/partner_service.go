package partner

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"hat-store/internal/models"
	"hat-store/internal/store"
)

// Client talks to the counterpart storefront over HTTP. All calls are
// best-effort from the trade protocol's point of view: a failed call
// never rolls back a local mutation.
type Client struct {
	client  *resty.Client
	baseURL string
	team    string
}

// NewClient builds a client for the counterpart at baseURL. team is
// this store's own name; it selects the webhook path on the partner.
func NewClient(baseURL, team string) *Client {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", "Hat-Store/1.0")

	return &Client{
		client:  client,
		baseURL: baseURL,
		team:    team,
	}
}

// FetchCatalog retrieves the partner's full catalog as an id-keyed
// map. The caller owns staleness handling.
func (c *Client) FetchCatalog(ctx context.Context) (map[string]models.Hat, error) {
	var catalog map[string]models.Hat
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&catalog).
		Get(fmt.Sprintf("%s/api/products", c.baseURL))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("partner catalog fetch: %s", resp.Status())
	}
	return catalog, nil
}

// Purchase asks the partner to sell the listing with the given id.
// A partner 404 maps to store.ErrNotFound so callers can treat it as
// a no-op rather than retrying.
func (c *Client) Purchase(ctx context.Context, id string) (models.Hat, error) {
	var hat models.Hat
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&hat).
		Post(fmt.Sprintf("%s/api/buy/%s", c.baseURL, id))
	if err != nil {
		return models.Hat{}, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.Hat{}, store.ErrNotFound
	}
	if resp.IsError() || hat.Name == "" {
		return models.Hat{}, fmt.Errorf("partner purchase %s: %s", id, resp.Status())
	}
	return hat, nil
}

// Notify delivers a webhook event to the partner. Errors are returned
// for logging only; callers swallow them.
func (c *Client) Notify(ctx context.Context, event models.WebhookEvent) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(event).
		Post(fmt.Sprintf("%s/webhook/%s", c.baseURL, c.team))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("partner webhook: %s", resp.Status())
	}
	return nil
}
