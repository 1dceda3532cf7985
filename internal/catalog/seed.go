package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

// DefaultProducts is the demo pharmacy catalog used to bootstrap an empty
// store.
var DefaultProducts = []domain.Product{
	{
		Name:        "Aspirin 500mg",
		Price:       12.50,
		Barcode:     "1234567890123",
		Image:       "https://images.unsplash.com/photo-1584308666744-24d5c474f2ae?w=200&h=200&fit=crop",
		Description: "Lek przeciwbólowy i przeciwgorączkowy. Zawiera kwas acetylosalicylowy.",
		Category:    "Leki przeciwbólowe",
		Stock:       150,
		Expiry:      "2025-12-31",
	},
	{
		Name:        "Vitamin C 1000mg",
		Price:       24.99,
		Barcode:     "4752224002761",
		Image:       "https://images.unsplash.com/photo-1550572017-edd951aa8ca6?w=200&h=200&fit=crop",
		Description: "Suplement diety z witaminą C wspierający układ odpornościowy.",
		Category:    "Suplementy",
		Stock:       89,
		Expiry:      "2025-06-30",
	},
	{
		Name:        "Paracetamol 500mg",
		Price:       8.75,
		Barcode:     "6935364021153",
		Image:       "https://images.unsplash.com/photo-1587854692152-cbe660dbde88?w=200&h=200&fit=crop",
		Description: "Lek przeciwbólowy i przeciwgorączkowy na bazie paracetamolu.",
		Category:    "Leki przeciwbólowe",
		Stock:       200,
		Expiry:      "2025-11-15",
	},
	{
		Name:        "Ibuprofen 400mg",
		Price:       15.30,
		Barcode:     "4567890123456",
		Image:       "https://images.unsplash.com/photo-1584308666744-24d5c474f2ae?w=200&h=200&fit=crop",
		Description: "Lek przeciwzapalny, przeciwbólowy i przeciwgorączkowy.",
		Category:    "Leki przeciwbólowe",
		Stock:       120,
		Expiry:      "2025-09-20",
	},
	{
		Name:        "Syrop na kaszel",
		Price:       18.60,
		Barcode:     "5678901234567",
		Image:       "https://images.unsplash.com/photo-1587854692152-cbe660dbde88?w=200&h=200&fit=crop",
		Description: "Syrop łagodzący kaszel suchy i mokry.",
		Category:    "Leki na przeziębienie",
		Stock:       65,
		Expiry:      "2025-08-10",
	},
}

// Seed inserts the demo catalog when the repository is empty. Idempotent:
// an already populated catalog is left untouched.
func Seed(ctx context.Context, repo Repository) error {
	existing, err := repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing products: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, p := range DefaultProducts {
		if err := repo.Add(ctx, p); err != nil {
			// A concurrent terminal may have seeded the same barcode.
			if errors.Is(err, ErrDuplicateCode) {
				continue
			}
			return fmt.Errorf("failed to seed product %s: %w", p.Barcode, err)
		}
	}
	return nil
}
