package models

import "time"

type User struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"` // customer, vendor, admin
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *User) IsVendor() bool   { return u.Role == RoleVendor }
func (u *User) IsCustomer() bool { return u.Role == RoleCustomer }
func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }

type VendorProfile struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	BusinessName  string    `json:"business_name"`
	Category      string    `json:"category"`
	City          string    `json:"city"`
	About         string    `json:"about,omitempty"`
	AverageRating float64   `json:"average_rating"`
	TotalReviews  int64     `json:"total_reviews"`
	Approved      bool      `json:"approved"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CustomerProfile struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type WishlistEntry struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	VendorID   int64     `json:"vendor_id"`
	CreatedAt  time.Time `json:"created_at"`
}
