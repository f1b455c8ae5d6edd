package models

// Block is a marketplace catalog entry: a unit of functionality users can
// unlock and wire into workflow definitions. The catalog is static and must
// stay in sync with the products configured in the billing provider.
type Block struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	FeatureSlug string   `json:"feature_slug"`
	PriceSlug   string   `json:"price_slug"`
	UsesAI      bool     `json:"uses_ai"`
	Inputs      []string `json:"inputs"`
	Outputs     []string `json:"outputs"`
}

// FeatureSlugFree marks a block that requires no entitlement.
const FeatureSlugFree = "free"

// BlockDefinitions is the marketplace block catalog.
var BlockDefinitions = []Block{
	{
		ID:          "echo",
		Name:        "Echo",
		Description: "Passes its input through unchanged. Useful for testing workflow wiring.",
		Icon:        "arrow-right",
		FeatureSlug: FeatureSlugFree,
		PriceSlug:   "",
		Inputs:      []string{"text"},
		Outputs:     []string{"text"},
	},
	{
		ID:          "uppercase",
		Name:        "Uppercase",
		Description: "Transforms input text to upper case.",
		Icon:        "type",
		FeatureSlug: FeatureSlugFree,
		PriceSlug:   "",
		Inputs:      []string{"text"},
		Outputs:     []string{"text"},
	},
	{
		ID:          "summarizer",
		Name:        "Summarizer",
		Description: "Condenses long text into a short summary.",
		Icon:        "file-text",
		FeatureSlug: "summarizer",
		PriceSlug:   "summarizer-unlock",
		UsesAI:      true,
		Inputs:      []string{"text"},
		Outputs:     []string{"summary"},
	},
	{
		ID:          "sentiment",
		Name:        "Sentiment Analyzer",
		Description: "Classifies input text as positive, negative, or neutral.",
		Icon:        "smile",
		FeatureSlug: "sentiment",
		PriceSlug:   "sentiment-unlock",
		UsesAI:      true,
		Inputs:      []string{"text"},
		Outputs:     []string{"sentiment"},
	},
	{
		ID:          "translator",
		Name:        "Translator",
		Description: "Translates input text into a target language.",
		Icon:        "globe",
		FeatureSlug: "translator",
		PriceSlug:   "translator-unlock",
		UsesAI:      true,
		Inputs:      []string{"text", "target_language"},
		Outputs:     []string{"translation"},
	},
}

// GetBlockByID returns the catalog entry for the given block ID, or nil if
// the block is unknown.
func GetBlockByID(id string) *Block {
	for i := range BlockDefinitions {
		if BlockDefinitions[i].ID == id {
			return &BlockDefinitions[i]
		}
	}
	return nil
}
