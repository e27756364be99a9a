package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog is the product catalog: how many mock-test cycles exist, what the
// premium plans cost and how personalized tests are sized.
type Catalog struct {
	Cycles       int          `yaml:"cycles"`
	Currency     string       `yaml:"currency"`
	Plans        []Plan       `yaml:"plans"`
	Personalized Personalized `yaml:"personalized"`
	Affirmation  string       `yaml:"affirmation"`
}

type Plan struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Amount int64  `yaml:"amount" json:"amount"` // paise
}

type Personalized struct {
	Size    int `yaml:"size"`
	Minutes int `yaml:"minutes"`
}

func (p Personalized) Duration() time.Duration {
	return time.Duration(p.Minutes) * time.Minute
}

func DefaultCatalog() *Catalog {
	return &Catalog{
		Cycles:   3,
		Currency: "INR",
		Plans: []Plan{
			{ID: "cycle_pass", Name: "All mock-test cycles", Amount: 49900},
		},
		Personalized: Personalized{Size: 20, Minutes: 40},
		Affirmation:  "I am calm, focused and ready to give my best in NEET",
	}
}

// LoadCatalog reads a YAML catalog. A missing file yields DefaultCatalog;
// fields left out of the file keep their defaults.
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

func (c *Catalog) Validate() error {
	if c.Cycles < 1 {
		return errors.New("cycles must be at least 1")
	}
	if len(c.Plans) == 0 {
		return errors.New("at least one plan is required")
	}
	seen := map[string]bool{}
	for _, p := range c.Plans {
		if p.ID == "" || p.Amount <= 0 {
			return fmt.Errorf("plan %q needs an id and a positive amount", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate plan %q", p.ID)
		}
		seen[p.ID] = true
	}
	if c.Personalized.Size < 1 || c.Personalized.Minutes < 1 {
		return errors.New("personalized size and minutes must be positive")
	}
	return nil
}

func (c *Catalog) Plan(id string) (Plan, bool) {
	for _, p := range c.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
