package memstore

import (
	"fmt"
	"os"
	"time"

	"holdings-pricer/internal/domain"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SeedFile is the yaml layout accepted by LoadSeed:
//
//	holdings:
//	  - symbol: AAPL
//	    quantity: 10
//	    purchase_price: 150.25
//	    purchase_date: 2024-01-15
type SeedFile struct {
	Holdings []SeedHolding `yaml:"holdings"`
}

type SeedHolding struct {
	ID            string  `yaml:"id"`
	Symbol        string  `yaml:"symbol"`
	Quantity      float64 `yaml:"quantity"`
	PurchasePrice float64 `yaml:"purchase_price"`
	PurchaseDate  string  `yaml:"purchase_date"`
}

// LoadSeed reads holdings from a yaml file. Entries are validated the same
// way as holdings created through the API.
func LoadSeed(path string, now time.Time) ([]domain.Holding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file '%s': %w", path, err)
	}
	return ParseSeed(data, now)
}

func ParseSeed(data []byte, now time.Time) ([]domain.Holding, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	out := make([]domain.Holding, 0, len(f.Holdings))
	for i, s := range f.Holdings {
		if !domain.ValidateSymbol(s.Symbol) {
			return nil, fmt.Errorf("seed holding %d: invalid symbol %q", i, s.Symbol)
		}
		if s.Quantity <= 0 || s.PurchasePrice <= 0 {
			return nil, fmt.Errorf("seed holding %d (%s): quantity and purchase_price must be positive", i, s.Symbol)
		}
		var pd *time.Time
		if s.PurchaseDate != "" {
			t, err := time.Parse(time.DateOnly, s.PurchaseDate)
			if err != nil {
				return nil, fmt.Errorf("seed holding %d (%s): purchase_date: %w", i, s.Symbol, err)
			}
			pd = &t
		}
		id := s.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, domain.NewHolding(id, s.Symbol, s.Quantity, s.PurchasePrice, pd, now))
	}
	return out, nil
}
