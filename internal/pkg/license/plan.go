package license

import "strings"

type Plan string

const (
	PlanTrial   Plan = "trial"
	PlanWeekly  Plan = "weekly"
	PlanMonthly Plan = "monthly"
)

// PlanSpec describes one entry of the closed plan catalog. DurationDays below
// 1.0 marks a minute-granular trial plan.
type PlanSpec struct {
	ID           Plan
	DurationDays float64
	PriceCents   int64
}

// Catalog is the static plan enumeration the engine is configured with.
// There is no dynamic plan creation; unknown ids are rejected at the boundary.
type Catalog struct {
	plans map[Plan]PlanSpec
}

// NewCatalog builds a catalog from the given specs.
func NewCatalog(specs ...PlanSpec) *Catalog {
	plans := make(map[Plan]PlanSpec, len(specs))
	for _, spec := range specs {
		plans[spec.ID] = spec
	}
	return &Catalog{plans: plans}
}

// DefaultCatalog returns the built-in plan set.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		PlanSpec{ID: PlanTrial, DurationDays: 0.021, PriceCents: 190},
		PlanSpec{ID: PlanWeekly, DurationDays: 7, PriceCents: 990},
		PlanSpec{ID: PlanMonthly, DurationDays: 30, PriceCents: 1990},
	)
}

// Get resolves a plan id to its spec, rejecting ids outside the catalog.
func (c *Catalog) Get(id string) (PlanSpec, error) {
	spec, ok := c.plans[Plan(normalizePlanID(id))]
	if !ok {
		return PlanSpec{}, ErrUnknownPlan
	}
	return spec, nil
}

// Contains reports whether the id names a catalog plan.
func (c *Catalog) Contains(id string) bool {
	_, err := c.Get(id)
	return err == nil
}

func normalizePlanID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
