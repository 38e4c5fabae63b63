package model

import "time"

// Customer status values. The local status follows the user-level panel
// action; the panel and the local row are not guaranteed to agree at
// every instant.
const (
	CustomerActive    = "ACTIVE"
	CustomerSuspended = "SUSPENDED"
)

type Customer struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	HestiaUsername   string     `json:"hestia_username"`
	HestiaPassword   string     `json:"-"`
	Status           string     `json:"status"`
	PackageID        int64      `json:"package_id"`
	StripeCustomerID *string    `json:"stripe_customer_id,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at"`
	NextBillingDate  *time.Time `json:"next_billing_date"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
