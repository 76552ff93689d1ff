package store

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/abgdnv/catalogtable/internal/catalog/errors"
)

const (
	SeedDev  = "dev"
	SeedBulk = "bulk"
	SeedNone = "none"
)

// Seed loads records into s through Create, so seeded records consume ids
// like any other. dev loads Laptop and Phone; bulk loads count generated
// records "Product N" with a price in [0, 100) rounded to cents and a stock
// in [0, 50); none loads nothing. It returns the number of records created.
func Seed(ctx context.Context, s ProductStore, mode string, count int, rnd *rand.Rand) (int, error) {
	switch mode {
	case SeedNone:
		return 0, nil
	case SeedDev:
		dev := []Product{
			{Name: "Laptop", Price: 1200, Stock: 10},
			{Name: "Phone", Price: 800, Stock: 25},
		}
		for i, p := range dev {
			if _, err := s.Create(ctx, p.Name, p.Price, p.Stock); err != nil {
				return i, fmt.Errorf("failed to seed %s: %w", p.Name, err)
			}
		}
		return len(dev), nil
	case SeedBulk:
		if rnd == nil {
			rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
		for i := 0; i < count; i++ {
			if err := ctx.Err(); err != nil {
				return i, err
			}
			price := math.Floor(rnd.Float64()*100*100) / 100
			name := fmt.Sprintf("Product %d", i+1)
			if _, err := s.Create(ctx, name, price, rnd.IntN(50)); err != nil {
				return i, fmt.Errorf("failed to seed %s: %w", name, err)
			}
		}
		return count, nil
	default:
		return 0, fmt.Errorf("%w: %q", errors.ErrUnknownSeedMode, mode)
	}
}
