package plan

// ID identifies a subscription tier.
type ID string

const (
	Free ID = "free"
	Pro  ID = "pro"
)

func (id ID) Valid() bool {
	return id == Free || id == Pro
}

// Feature is an entitlement key checked by the entitlement resolver.
type Feature string

const (
	FeatureMaxNDAs           Feature = "max_ndas"
	FeatureAutomaticAlerts   Feature = "automatic_alerts"
	FeaturePrioritySupport   Feature = "priority_support"
	FeatureAdvancedAnalytics Feature = "advanced_analytics"
	FeatureCustomBranding    Feature = "custom_branding"
	FeatureAPIAccess         Feature = "api_access"
)

// Unlimited marks an unbounded upload limit (-1 keeps it storable as an integer).
const Unlimited int64 = -1

// Money is an amount in the smallest currency unit, e.g. 4900 USD cents.
type Money struct {
	Amount   int64  `yaml:"amount" json:"amount"`
	Currency string `yaml:"currency" json:"currency"`
}

// Plan describes a tier. Plans are immutable once the catalog is built.
type Plan struct {
	ID           ID        `yaml:"id" json:"id"`
	Name         string    `yaml:"name" json:"name"`
	Description  string    `yaml:"description" json:"description"`
	Price        Money     `yaml:"price" json:"price"`
	Interval     string    `yaml:"interval" json:"interval"`
	PriceID      string    `yaml:"price_id" json:"priceId"`
	UploadLimit  int64     `yaml:"upload_limit" json:"uploadLimit"`
	Features     []string  `yaml:"features" json:"features"`
	Entitlements []Feature `yaml:"entitlements" json:"entitlements"`
}

func (p Plan) IsFree() bool {
	return p.Price.Amount == 0
}

func (p Plan) Unlimited() bool {
	return p.UploadLimit == Unlimited
}

// Grants reports whether the plan's entitlement set contains f.
func (p Plan) Grants(f Feature) bool {
	for _, e := range p.Entitlements {
		if e == f {
			return true
		}
	}
	return false
}
