package billing

import (
	"context"

	"blockmart/backend/pkg/models"
)

// DemoClient is the demo-mode stand-in for the billing provider: every block
// in the catalog is unlocked and priced at zero, so the marketplace is fully
// explorable without a billing account.
type DemoClient struct{}

// NewDemoClient creates a DemoClient.
func NewDemoClient() *DemoClient {
	return &DemoClient{}
}

// GetBilling returns a snapshot granting every catalog feature.
func (c *DemoClient) GetBilling(ctx context.Context, userID string) (*Billing, error) {
	billing := &Billing{
		Features: make(map[string]bool),
		Prices:   make(map[string]Price),
	}
	for _, block := range models.BlockDefinitions {
		if block.FeatureSlug != models.FeatureSlugFree {
			billing.Features[block.FeatureSlug] = true
		}
		if block.PriceSlug != "" {
			billing.Prices[block.PriceSlug] = Price{
				Slug:     block.PriceSlug,
				Name:     block.Name,
				Currency: "usd",
				Type:     "single_payment",
			}
		}
	}
	return billing, nil
}
