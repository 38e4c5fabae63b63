package model

import "time"

// Website status values.
const (
	WebsitePending    = "PENDING"
	WebsiteDNSPending = "DNS_PENDING"
	WebsiteSSLPending = "SSL_PENDING"
	WebsiteActive     = "ACTIVE"
	WebsiteSuspended  = "SUSPENDED"
)

type Website struct {
	ID           int64     `json:"id"`
	CustomerID   int64     `json:"customer_id"`
	Name         string    `json:"name"`
	Subdomain    string    `json:"subdomain"`
	CustomDomain *string   `json:"custom_domain"`
	Status       string    `json:"status"`
	SSLEnabled   bool      `json:"ssl_enabled"`
	SSLForce     bool      `json:"ssl_force"`
	SSLVerified  bool      `json:"ssl_verified"`
	PHPVersion   string    `json:"php_version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Domain returns the domain the panel knows this website by: the custom
// domain when attached, else the allocated subdomain.
func (w *Website) Domain() string {
	if w.CustomDomain != nil && *w.CustomDomain != "" {
		return *w.CustomDomain
	}
	return w.Subdomain
}
