package repository

import (
	"bikerent/pkg/model"
	"bikerent/pkg/sanitizer"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the on-disk format of a directory seed file.
type Seed struct {
	Assets  []model.Asset  `yaml:"assets"`
	Renters []model.Renter `yaml:"renters"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i := range seed.Assets {
		seed.Assets[i].Serial = sanitizer.NormalizeSerial(seed.Assets[i].Serial)
		if seed.Assets[i].Serial == "" {
			return nil, fmt.Errorf("seed asset %d has no serial", i)
		}
	}
	for i := range seed.Renters {
		seed.Renters[i].TaxID = sanitizer.NormalizeTaxID(seed.Renters[i].TaxID)
		if seed.Renters[i].TaxID == "" {
			return nil, fmt.Errorf("seed renter %d has no tax id", i)
		}
	}

	return &seed, nil
}

// Apply upserts every seeded asset and renter. IDs assigned by the store are
// written back into the seed.
func (s *Seed) Apply(ctx context.Context, directory DirectoryRepository) error {
	for i := range s.Assets {
		if err := directory.UpsertAsset(ctx, &s.Assets[i]); err != nil {
			return fmt.Errorf("failed to seed asset %s: %w", s.Assets[i].Serial, err)
		}
	}
	for i := range s.Renters {
		if err := directory.UpsertRenter(ctx, &s.Renters[i]); err != nil {
			return fmt.Errorf("failed to seed renter %s: %w", s.Renters[i].TaxID, err)
		}
	}
	return nil
}
