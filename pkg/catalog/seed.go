package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Prestations []seedEntry `yaml:"prestations"`
}

type seedEntry struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Price         float64  `yaml:"price"`
	AvailableDays []string `yaml:"available_days"`
}

// SeedReport counts the outcome of a seed run.
type SeedReport struct {
	Created int
	Skipped int
}

// LoadSeed decodes a YAML catalog file.
func LoadSeed(reader io.Reader) ([]Input, error) {
	var file seedFile
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	inputs := make([]Input, 0, len(file.Prestations))
	for _, entry := range file.Prestations {
		inputs = append(inputs, Input{
			Name:          entry.Name,
			Description:   entry.Description,
			Price:         decimal.NewFromFloat(entry.Price),
			AvailableDays: entry.AvailableDays,
		})
	}
	return inputs, nil
}

// DefaultSeed returns the three launch prestations.
func DefaultSeed() []Input {
	price := decimal.NewFromInt(3)
	return []Input{
		{
			Name:          "Prestation Du Lundi",
			Description:   "Découvrez notre première prestation exceptionnelle qui vous aidera à atteindre vos objectifs sportifs.",
			Price:         price,
			AvailableDays: []string{"lundi"},
		},
		{
			Name:          "Prestation Du Mercredi",
			Description:   "La deuxième prestation met l'accent sur des techniques avancées pour améliorer vos performances.",
			Price:         price,
			AvailableDays: []string{"mercredi"},
		},
		{
			Name:          "Prestation Du Dimanche",
			Description:   "Profitez de notre troisième prestation pour un accompagnement personnalisé et des conseils experts.",
			Price:         price,
			AvailableDays: []string{"dimanche"},
		},
	}
}

// Seed creates each input, skipping slugs that already exist.
func (service *Service) Seed(ctx context.Context, inputs []Input) (SeedReport, error) {
	var report SeedReport
	for _, input := range inputs {
		if _, err := service.Create(ctx, input); err != nil {
			if IsDuplicate(err) {
				report.Skipped++
				continue
			}
			return report, fmt.Errorf("seed %q: %w", input.Name, err)
		}
		report.Created++
	}
	return report, nil
}
