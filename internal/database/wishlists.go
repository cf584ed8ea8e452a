package database

import (
	"context"
	"fmt"
	"time"

	"eventnest/internal/models"
)

// AddToWishlist is idempotent: re-adding an existing pair is a no-op.
func (t *Tx) AddToWishlist(ctx context.Context, customerID, vendorID int64) error {
	query := `INSERT INTO wishlists (customer_id, vendor_id, created_at) VALUES (?, ?, ?)
              ON CONFLICT(customer_id, vendor_id) DO NOTHING`
	if _, err := t.q.ExecContext(ctx, query, customerID, vendorID, time.Now()); err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}
	return nil
}

func (t *Tx) RemoveFromWishlist(ctx context.Context, customerID, vendorID int64) error {
	query := `DELETE FROM wishlists WHERE customer_id = ? AND vendor_id = ?`
	if _, err := t.q.ExecContext(ctx, query, customerID, vendorID); err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	return nil
}

func (t *Tx) ListWishlist(ctx context.Context, customerID int64) ([]*models.WishlistEntry, error) {
	query := `SELECT id, customer_id, vendor_id, created_at FROM wishlists WHERE customer_id = ? ORDER BY created_at DESC`
	rows, err := t.q.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var out []*models.WishlistEntry
	for rows.Next() {
		var w models.WishlistEntry
		if err := rows.Scan(&w.ID, &w.CustomerID, &w.VendorID, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist entry: %w", err)
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}
