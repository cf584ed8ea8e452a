package service

import (
	"context"

	"eventnest/internal/database"
	"eventnest/internal/models"
)

// WishlistService lets customers keep a list of vendors they are considering.
type WishlistService struct {
	db *database.DB
}

func NewWishlistService(db *database.DB) *WishlistService {
	return &WishlistService{db: db}
}

// Add is idempotent; re-adding a vendor already on the list is a no-op.
func (s *WishlistService) Add(ctx context.Context, customerID, vendorID int64) error {
	if _, err := s.db.GetVendorProfile(ctx, vendorID); err != nil {
		return err
	}
	return s.db.AddToWishlist(ctx, customerID, vendorID)
}

func (s *WishlistService) Remove(ctx context.Context, customerID, vendorID int64) error {
	return s.db.RemoveFromWishlist(ctx, customerID, vendorID)
}

func (s *WishlistService) List(ctx context.Context, customerID int64) ([]*models.WishlistEntry, error) {
	return s.db.ListWishlist(ctx, customerID)
}
