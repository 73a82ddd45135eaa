// Package catalog loads the read-only product definitions that drive the
// step counter: the ordered step list, per-step upload and follow-up rules,
// and the per-product free-attempt limit.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownProduct is returned by Get for a slug not present in the catalog.
var ErrUnknownProduct = errors.New("unknown product")

// Step is one wizard step.
type Step struct {
	Number          int    `yaml:"step"              json:"step"`
	Title           string `yaml:"title"             json:"title"`
	AllowFileUpload bool   `yaml:"allow_file_upload" json:"allow_file_upload"`
	AllowFollowUp   bool   `yaml:"allow_follow_up"   json:"allow_follow_up"`
	MaxFollowUps    int    `yaml:"max_follow_ups"    json:"max_follow_ups"`
	Required        bool   `yaml:"required"          json:"required"`
}

// Product is a ProductDefinition.
type Product struct {
	Slug             string `yaml:"slug"              json:"slug"`
	Name             string `yaml:"name"              json:"name"`
	ShowInstructions bool   `yaml:"show_instructions" json:"show_instructions"`
	// FreeAttempts overrides the global free-retry limit when non-nil.
	FreeAttempts *int   `yaml:"free_attempts,omitempty" json:"free_attempts,omitempty"`
	Steps        []Step `yaml:"steps"                   json:"steps"`
}

// TotalSteps is the length of the step list.
func (p *Product) TotalSteps() int { return len(p.Steps) }

// Step returns the 1-based step n, or false.
func (p *Product) Step(n int) (Step, bool) {
	if n < 1 || n > len(p.Steps) {
		return Step{}, false
	}
	return p.Steps[n-1], true
}

// Catalog is an immutable, in-memory set of products.
type Catalog struct {
	products map[string]*Product
}

type file struct {
	Products []*Product `yaml:"products"`
}

// Load reads a catalog YAML file from disk.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates catalog YAML.
func Parse(b []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(f.Products...)
}

// New validates the given products and builds a Catalog. Steps are numbered
// from 1 in list order when the number is omitted.
func New(products ...*Product) (*Catalog, error) {
	c := &Catalog{products: make(map[string]*Product, len(products))}
	for _, p := range products {
		if p == nil {
			continue
		}
		p.Slug = strings.TrimSpace(p.Slug)
		if p.Slug == "" {
			return nil, errors.New("catalog: product slug is required")
		}
		if _, dup := c.products[p.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate product %q", p.Slug)
		}
		if len(p.Steps) == 0 {
			return nil, fmt.Errorf("catalog: product %q has no steps", p.Slug)
		}
		if p.FreeAttempts != nil && *p.FreeAttempts < 0 {
			return nil, fmt.Errorf("catalog: product %q free_attempts must be >= 0", p.Slug)
		}
		for i := range p.Steps {
			s := &p.Steps[i]
			if s.Number == 0 {
				s.Number = i + 1
			}
			if s.Number != i+1 {
				return nil, fmt.Errorf("catalog: product %q step %d out of order", p.Slug, s.Number)
			}
			if s.MaxFollowUps < 0 {
				return nil, fmt.Errorf("catalog: product %q step %d max_follow_ups must be >= 0", p.Slug, s.Number)
			}
		}
		c.products[p.Slug] = p
	}
	return c, nil
}

// Get returns the product with the given slug.
func (c *Catalog) Get(slug string) (*Product, error) {
	if p, ok := c.products[slug]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, slug)
}

// List returns all products sorted by slug.
func (c *Catalog) List() []*Product {
	out := make([]*Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
