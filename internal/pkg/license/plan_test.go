package license

import (
	"errors"
	"testing"
)

func TestCatalogGet(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		in      string
		want    Plan
		wantErr bool
	}{
		{in: "trial", want: PlanTrial},
		{in: "weekly", want: PlanWeekly},
		{in: "monthly", want: PlanMonthly},
		{in: "MONTHLY", want: PlanMonthly},
		{in: "  weekly  ", want: PlanWeekly},
		{in: "lifetime", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		spec, err := c.Get(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownPlan) {
				t.Fatalf("Get(%q) error = %v, want ErrUnknownPlan", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Get(%q) unexpected error: %v", tt.in, err)
		}
		if spec.ID != tt.want {
			t.Fatalf("Get(%q) = %s, want %s", tt.in, spec.ID, tt.want)
		}
	}
}

func TestDefaultCatalogPricing(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		plan    string
		minutes int64
		cents   int64
	}{
		{plan: "trial", minutes: 30, cents: 190},
		{plan: "weekly", minutes: 10080, cents: 990},
		{plan: "monthly", minutes: 43200, cents: 1990},
	}

	for _, tt := range tests {
		spec, err := c.Get(tt.plan)
		if err != nil {
			t.Fatalf("Get(%q) unexpected error: %v", tt.plan, err)
		}
		if spec.PriceCents != tt.cents {
			t.Fatalf("plan %s price = %d, want %d", tt.plan, spec.PriceCents, tt.cents)
		}
		if got := TotalMinutes(spec.DurationDays); got != tt.minutes {
			t.Fatalf("plan %s minutes = %d, want %d", tt.plan, got, tt.minutes)
		}
	}
}

func TestCatalogContains(t *testing.T) {
	c := DefaultCatalog()
	if !c.Contains("weekly") {
		t.Fatalf("expected catalog to contain weekly")
	}
	if c.Contains("platinum") {
		t.Fatalf("expected catalog to reject platinum")
	}
}
