// Package billing talks to the external billing provider that answers
// entitlement and pricing questions for marketplace blocks. The backend never
// processes payments itself; it only asks "does user X have feature Y" and
// reads the price catalog.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client answers entitlement and pricing questions for one customer.
type Client interface {
	// GetBilling fetches the per-customer billing snapshot.
	GetBilling(ctx context.Context, userID string) (*Billing, error)
}

// Billing is a per-customer snapshot of granted features, resolved prices,
// and subscriptions.
type Billing struct {
	Features      map[string]bool
	Prices        map[string]Price
	Subscriptions []Subscription
}

// CheckFeatureAccess reports whether the customer holds the given feature.
func (b *Billing) CheckFeatureAccess(featureSlug string) bool {
	return b != nil && b.Features[featureSlug]
}

// GetPrice looks up a resolved price by slug.
func (b *Billing) GetPrice(priceSlug string) (Price, bool) {
	if b == nil {
		return Price{}, false
	}
	price, ok := b.Prices[priceSlug]
	return price, ok
}

// Price is a resolved catalog price.
type Price struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	UnitAmount int    `json:"unit_amount"`
	Currency   string `json:"currency"`
	Type       string `json:"type"`
}

// Subscription is the provider's view of a customer subscription.
type Subscription struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HTTPClient implements Client against the provider's REST API.
type HTTPClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient authenticated with the given secret key.
func NewHTTPClient(baseURL, secretKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// billingResponse is the provider's wire shape for a customer billing fetch.
type billingResponse struct {
	Features []struct {
		Slug    string `json:"slug"`
		Granted bool   `json:"granted"`
	} `json:"features"`
	Purchases []struct {
		ID      string `json:"id"`
		PriceID string `json:"priceId"`
		Status  string `json:"status"`
	} `json:"purchases"`
	Subscriptions []Subscription `json:"subscriptions"`
	Catalog       struct {
		Products []struct {
			ID           string         `json:"id"`
			Slug         string         `json:"slug"`
			DefaultPrice *catalogPrice  `json:"defaultPrice"`
			Prices       []catalogPrice `json:"prices"`
		} `json:"products"`
	} `json:"catalog"`
}

type catalogPrice struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	UnitPrice int    `json:"unitPrice"`
	Currency  string `json:"currency"`
	Type      string `json:"type"`
}

// GetBilling fetches the customer's billing snapshot and folds the raw
// response into feature and price maps. A purchase grants the feature of the
// product whose price it bought, so purchases are resolved through the
// catalog's price-to-product mapping.
func (c *HTTPClient) GetBilling(ctx context.Context, userID string) (*Billing, error) {
	url := fmt.Sprintf("%s/api/v1/customers/%s/billing", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach billing provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("billing provider returned status %d", resp.StatusCode)
	}

	var payload billingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode billing response: %w", err)
	}

	billing := &Billing{
		Features:      make(map[string]bool),
		Prices:        make(map[string]Price),
		Subscriptions: payload.Subscriptions,
	}
	for _, feature := range payload.Features {
		if feature.Granted {
			billing.Features[feature.Slug] = true
		}
	}

	priceIDToProduct := make(map[string]string)
	for _, product := range payload.Catalog.Products {
		if product.DefaultPrice != nil {
			priceIDToProduct[product.DefaultPrice.ID] = product.Slug
			billing.Prices[product.DefaultPrice.Slug] = product.DefaultPrice.toPrice()
		}
		for _, price := range product.Prices {
			priceIDToProduct[price.ID] = product.Slug
			billing.Prices[price.Slug] = price.toPrice()
		}
	}
	for _, purchase := range payload.Purchases {
		if slug, ok := priceIDToProduct[purchase.PriceID]; ok {
			billing.Features[slug] = true
		}
	}
	return billing, nil
}

func (p catalogPrice) toPrice() Price {
	return Price{
		Slug:       p.Slug,
		Name:       p.Name,
		UnitAmount: p.UnitPrice,
		Currency:   p.Currency,
		Type:       p.Type,
	}
}
