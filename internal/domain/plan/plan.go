// Package plan holds the fixed catalogue of purchasable subscription plans.
package plan

import (
	_ "embed"
	"fmt"
	"sort"
	"time"

	"github.com/pulseai/pulseai/internal/domain/subscription"
	"gopkg.in/yaml.v3"
)

// Plan types
const (
	TypeStarter   = "starter"
	TypePro       = "pro"
	TypeUnlimited = "unlimited"
)

//go:embed plans.yaml
var defaultCatalog []byte

// Plan is one purchasable offer
type Plan struct {
	Type      string        `yaml:"type" json:"type"`
	Title     string        `yaml:"title" json:"title"`
	Price     int           `yaml:"price" json:"price"`
	Requests  *int          `yaml:"requests,omitempty" json:"requests"`
	Unlimited bool          `yaml:"unlimited,omitempty" json:"unlimited"`
	Duration  time.Duration `yaml:"duration,omitempty" json:"-"`
}

// Amount renders the price the way the gateway expects it
func (p Plan) Amount() string {
	return fmt.Sprintf("%d.00", p.Price)
}

// NewSubscription builds the subscription row granted by a paid plan
func (p Plan) NewSubscription(userID int64, now time.Time) *subscription.Subscription {
	sub := &subscription.Subscription{
		UserID:      userID,
		PlanType:    p.Type,
		IsUnlimited: p.Unlimited,
		IsActive:    true,
		CreatedAt:   now,
	}
	if p.Unlimited {
		expires := now.Add(p.Duration)
		sub.ExpiresAt = &expires
	} else if p.Requests != nil {
		total := *p.Requests
		sub.RequestsTotal = &total
	}
	return sub
}

// Catalog is an immutable set of plans keyed by type
type Catalog struct {
	plans map[string]Plan
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

// Parse decodes a YAML catalogue
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}

	c := &Catalog{plans: make(map[string]Plan, len(f.Plans))}
	for _, p := range f.Plans {
		if p.Type == "" {
			return nil, fmt.Errorf("plan without type")
		}
		if _, dup := c.plans[p.Type]; dup {
			return nil, fmt.Errorf("duplicate plan %q", p.Type)
		}
		if p.Price <= 0 {
			return nil, fmt.Errorf("plan %q: price must be positive", p.Type)
		}
		if p.Unlimited && p.Duration <= 0 {
			return nil, fmt.Errorf("plan %q: unlimited plans need a duration", p.Type)
		}
		if !p.Unlimited && (p.Requests == nil || *p.Requests <= 0) {
			return nil, fmt.Errorf("plan %q: metered plans need a request allotment", p.Type)
		}
		c.plans[p.Type] = p
	}
	return c, nil
}

// Default returns the built-in catalogue
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup finds a plan by type
func (c *Catalog) Lookup(planType string) (Plan, bool) {
	p, ok := c.plans[planType]
	return p, ok
}

// All returns every plan ordered by price
func (c *Catalog) All() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}
