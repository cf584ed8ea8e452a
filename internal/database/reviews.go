package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventnest/internal/models"
)

// CreateReview inserts the review row. The UNIQUE constraint on booking_id is
// the one-review-per-booking guard; violations surface as ErrConflict.
func (t *Tx) CreateReview(ctx context.Context, r *models.Review) error {
	photos, err := json.Marshal(r.Photos)
	if err != nil {
		return fmt.Errorf("encode review photos: %w", err)
	}
	query := `INSERT INTO reviews (booking_id, vendor_id, customer_id, rating, body, photos, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := t.q.ExecContext(ctx, query, r.BookingID, r.VendorID, r.CustomerID, r.Rating, r.Body, string(photos), now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create review: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("review last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	return nil
}

func (t *Tx) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	query := `SELECT id, booking_id, vendor_id, customer_id, rating, body, photos, created_at
              FROM reviews WHERE id = ?`
	r, err := scanReview(t.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return r, nil
}

func (t *Tx) DeleteReview(ctx context.Context, id int64) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReview(row interface{ Scan(...any) error }) (*models.Review, error) {
	var r models.Review
	var body, photos sql.NullString
	err := row.Scan(&r.ID, &r.BookingID, &r.VendorID, &r.CustomerID, &r.Rating, &body, &photos, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Body = body.String
	if photos.Valid && photos.String != "" {
		if err := json.Unmarshal([]byte(photos.String), &r.Photos); err != nil {
			return nil, fmt.Errorf("decode review photos: %w", err)
		}
	}
	return &r, nil
}

func (t *Tx) ListVendorReviews(ctx context.Context, vendorID int64) ([]*models.Review, error) {
	query := `SELECT id, booking_id, vendor_id, customer_id, rating, body, photos, created_at
              FROM reviews WHERE vendor_id = ? ORDER BY created_at DESC`
	rows, err := t.q.QueryContext(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list vendor reviews: %w", err)
	}
	defer rows.Close()

	var out []*models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *Tx) ListReviews(ctx context.Context) ([]*models.Review, error) {
	query := `SELECT id, booking_id, vendor_id, customer_id, rating, body, photos, created_at
              FROM reviews ORDER BY created_at DESC`
	rows, err := t.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []*models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecomputeVendorAggregate re-derives average_rating and total_reviews from a
// full scan of the vendor's reviews. Full recompute instead of an incremental
// running average keeps the cache drift-free after deletions.
func (t *Tx) RecomputeVendorAggregate(ctx context.Context, vendorID int64) error {
	var count int64
	var avg sql.NullFloat64
	query := `SELECT COUNT(*), AVG(rating) FROM reviews WHERE vendor_id = ?`
	if err := t.q.QueryRowContext(ctx, query, vendorID).Scan(&count, &avg); err != nil {
		return fmt.Errorf("aggregate vendor reviews: %w", err)
	}

	rating := 0.0
	if avg.Valid {
		rating = models.Round1(avg.Float64)
	}

	update := `UPDATE vendor_profiles SET average_rating = ?, total_reviews = ?, updated_at = ? WHERE user_id = ?`
	if _, err := t.q.ExecContext(ctx, update, rating, count, time.Now(), vendorID); err != nil {
		return fmt.Errorf("update vendor aggregate: %w", err)
	}
	return nil
}

// CreateReviewReply inserts the single vendor reply a review allows.
func (t *Tx) CreateReviewReply(ctx context.Context, r *models.ReviewReply) error {
	query := `INSERT INTO review_replies (review_id, vendor_id, body, created_at) VALUES (?, ?, ?, ?)`
	now := time.Now()
	res, err := t.q.ExecContext(ctx, query, r.ReviewID, r.VendorID, r.Body, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create review reply: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("review reply last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	return nil
}
