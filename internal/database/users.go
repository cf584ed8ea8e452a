package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventnest/internal/models"
)

func (t *Tx) CreateUser(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleCustomer
	}
	query := `INSERT INTO users (external_id, email, name, role, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := t.q.ExecContext(ctx, query, u.ExternalID, u.Email, u.Name, u.Role, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user last insert id: %w", err)
	}
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (t *Tx) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, external_id, email, name, role, created_at, updated_at FROM users WHERE id = ?`
	return t.scanUserRow(t.q.QueryRowContext(ctx, query, id))
}

// GetUserByExternalID resolves the internal user for an auth-platform identity.
func (t *Tx) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	query := `SELECT id, external_id, email, name, role, created_at, updated_at FROM users WHERE external_id = ?`
	return t.scanUserRow(t.q.QueryRowContext(ctx, query, externalID))
}

func (t *Tx) scanUserRow(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (t *Tx) CreateVendorProfile(ctx context.Context, p *models.VendorProfile) error {
	query := `INSERT INTO vendor_profiles (user_id, business_name, category, city, about, approved, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := t.q.ExecContext(ctx, query, p.UserID, p.BusinessName, p.Category, p.City, p.About, p.Approved, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create vendor profile: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("vendor profile last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetVendorProfile looks up a vendor profile by the owning user id.
func (t *Tx) GetVendorProfile(ctx context.Context, userID int64) (*models.VendorProfile, error) {
	query := `SELECT id, user_id, business_name, category, city, about, average_rating, total_reviews, approved, created_at, updated_at
              FROM vendor_profiles WHERE user_id = ?`
	var p models.VendorProfile
	var category, city, about sql.NullString
	err := t.q.QueryRowContext(ctx, query, userID).Scan(&p.ID, &p.UserID, &p.BusinessName,
		&category, &city, &about, &p.AverageRating, &p.TotalReviews, &p.Approved, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor profile: %w", err)
	}
	p.Category = category.String
	p.City = city.String
	p.About = about.String
	return &p, nil
}

// SetVendorApproved toggles the moderation flag on a vendor profile.
func (t *Tx) SetVendorApproved(ctx context.Context, userID int64, approved bool) error {
	query := `UPDATE vendor_profiles SET approved = ?, updated_at = ? WHERE user_id = ?`
	res, err := t.q.ExecContext(ctx, query, approved, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("set vendor approved: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *Tx) CreateCustomerProfile(ctx context.Context, p *models.CustomerProfile) error {
	query := `INSERT INTO customer_profiles (user_id, full_name, phone, created_at) VALUES (?, ?, ?, ?)`
	now := time.Now()
	res, err := t.q.ExecContext(ctx, query, p.UserID, p.FullName, p.Phone, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create customer profile: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("customer profile last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}
