package services

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

// LowStockThreshold is the quantity below which a product reports LOW_STOCK.
const LowStockThreshold = 5

type InventoryService struct {
	Inv *repos.InventoryRepo
}

func NewInventoryService(inv *repos.InventoryRepo) *InventoryService {
	return &InventoryService{Inv: inv}
}

// CheckAvailability maps a visible product's stock to IN_STOCK, LOW_STOCK or
// OUT_OF_STOCK. Hidden products are not found.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	qty, err := s.Inv.ShelfQty(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Availability{}, errors.Wrapf(ErrNotFound, "product %s", productID)
		}
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= LowStockThreshold:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}
