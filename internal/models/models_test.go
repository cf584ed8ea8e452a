package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBooking_SetPrice(t *testing.T) {
	b := &Booking{}
	b.SetPrice(1000)
	assert.Equal(t, 1000.0, b.TotalPrice)
	assert.Equal(t, 100.0, b.VendorFee)
	assert.Equal(t, 20.0, b.CustomerFee)

	b.SetPrice(333.33)
	assert.Equal(t, 33.33, b.VendorFee)
	assert.Equal(t, 6.67, b.CustomerFee)

	b.SetPrice(0.05)
	assert.Equal(t, 0.01, b.VendorFee)
	assert.Equal(t, 0.0, b.CustomerFee)
}

func TestBooking_Cancellable(t *testing.T) {
	cases := map[string]bool{
		StatusNewInquiry: true,
		StatusPending:    true,
		StatusConfirmed:  false,
		StatusCancelled:  false,
		StatusCompleted:  false,
	}
	for status, want := range cases {
		b := &Booking{Status: status}
		assert.Equal(t, want, b.Cancellable(), status)
	}
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 4.67, Round2(4.666666))
	assert.Equal(t, 4.7, Round1(4.65))
	assert.Equal(t, 0.0, Round1(0.04))
	assert.Equal(t, 5.0, Round1(4.96))
}

func TestUser_Roles(t *testing.T) {
	assert.True(t, (&User{Role: RoleVendor}).IsVendor())
	assert.True(t, (&User{Role: RoleCustomer}).IsCustomer())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleCustomer}).IsVendor())
}
