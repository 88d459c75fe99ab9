package plan

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlans []byte

// Catalog is the fixed, ordered set of plans: free first, then pro.
type Catalog struct {
	plans []Plan
}

// Default returns the catalog built from the embedded plan definitions.
// It panics if they are invalid, since the binary cannot run without them.
func Default() *Catalog {
	c, err := Parse(defaultPlans)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML and validates its shape.
func Parse(data []byte) (*Catalog, error) {
	var plans []Plan
	if err := yaml.Unmarshal(data, &plans); err != nil {
		return nil, errors.Join(ErrInvalidPlanConfiguration, err)
	}
	return New(plans...)
}

// New validates plans and returns a catalog. The catalog must hold exactly
// one free and one pro plan, in that order.
func New(plans ...Plan) (*Catalog, error) {
	if len(plans) != 2 {
		return nil, fmt.Errorf("%w: expected 2 plans, got %d", ErrInvalidPlanConfiguration, len(plans))
	}
	if plans[0].ID != Free || plans[1].ID != Pro {
		return nil, fmt.Errorf("%w: plans must be ordered free, pro", ErrInvalidPlanConfiguration)
	}

	seen := make(map[string]struct{}, len(plans))
	for _, p := range plans {
		if p.PriceID == "" {
			return nil, fmt.Errorf("%w: plan %q has no price id", ErrInvalidPlanConfiguration, p.ID)
		}
		if _, dup := seen[p.PriceID]; dup {
			return nil, fmt.Errorf("%w: duplicate price id %q", ErrInvalidPlanConfiguration, p.PriceID)
		}
		seen[p.PriceID] = struct{}{}
		if p.UploadLimit < Unlimited {
			return nil, fmt.Errorf("%w: plan %q has negative upload limit", ErrInvalidPlanConfiguration, p.ID)
		}
	}
	if !plans[0].IsFree() {
		return nil, fmt.Errorf("%w: free plan must cost nothing", ErrInvalidPlanConfiguration)
	}

	return &Catalog{plans: slices.Clone(plans)}, nil
}

// List returns the plans in display order. The slice is a copy.
func (c *Catalog) List() []Plan {
	return slices.Clone(c.plans)
}

// Get looks a plan up by identifier.
func (c *Catalog) Get(id ID) (Plan, error) {
	for _, p := range c.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("%w: %q", ErrPlanNotFound, id)
}

// ByPriceID looks a plan up by the payment provider's price reference.
func (c *Catalog) ByPriceID(priceID string) (Plan, error) {
	for _, p := range c.plans {
		if p.PriceID == priceID {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("%w: price %q", ErrPlanNotFound, priceID)
}

// Resolve accepts either a plan identifier or a price reference.
func (c *Catalog) Resolve(ref string) (Plan, error) {
	if p, err := c.Get(ID(ref)); err == nil {
		return p, nil
	}
	return c.ByPriceID(ref)
}

func (c *Catalog) Free() Plan {
	return c.plans[0]
}

func (c *Catalog) Pro() Plan {
	return c.plans[1]
}
