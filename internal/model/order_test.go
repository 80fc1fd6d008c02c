package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPaymentStatus(t *testing.T) {
	for _, s := range []string{PaymentPending, PaymentPaid, PaymentExpired} {
		assert.True(t, ValidPaymentStatus(s), s)
	}
	for _, s := range []string{"", "settlement", "PAID", "refunded"} {
		assert.False(t, ValidPaymentStatus(s), s)
	}
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []string{OrderPending, OrderApproved, OrderCompleted} {
		assert.True(t, ValidOrderStatus(s), s)
	}
	for _, s := range []string{"", "cancelled", "Approved"} {
		assert.False(t, ValidOrderStatus(s), s)
	}
}

func TestValidCategory(t *testing.T) {
	for _, s := range []string{CategoryContentCreator, CategorySocialMediaMgmt, CategorySocialMediaAds} {
		assert.True(t, ValidCategory(s), s)
	}
	assert.False(t, ValidCategory("content creator"))
	assert.False(t, ValidCategory(""))
}
