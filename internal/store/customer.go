package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hostfold/hostfold/internal/model"
)

type CustomerStore struct {
	db *sql.DB
}

func NewCustomerStore(db *sql.DB) *CustomerStore {
	return &CustomerStore{db: db}
}

func scanCustomer(scanner interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	var stripeID sql.NullString
	var expiresAt, nextBilling sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.Email, &c.Name, &c.HestiaUsername, &c.HestiaPassword,
		&c.Status, &c.PackageID, &stripeID, &expiresAt, &nextBilling,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if stripeID.Valid {
		c.StripeCustomerID = &stripeID.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		c.ExpiresAt = &t
	}
	if nextBilling.Valid {
		t := nextBilling.Time
		c.NextBillingDate = &t
	}
	return &c, nil
}

const customerCols = `id, email, name, hestia_username, hestia_password, status, package_id, stripe_customer_id, expires_at, next_billing_date, created_at, updated_at`

func (s *CustomerStore) Create(email, name, hestiaUsername, hestiaPassword string, packageID int64) (*model.Customer, error) {
	result, err := s.db.Exec(
		`INSERT INTO customers (email, name, hestia_username, hestia_password, package_id) VALUES (?, ?, ?, ?, ?)`,
		email, name, hestiaUsername, hestiaPassword, packageID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CustomerStore) GetByID(id int64) (*model.Customer, error) {
	row := s.db.QueryRow(`SELECT `+customerCols+` FROM customers WHERE id = ?`, id)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (s *CustomerStore) GetByEmail(email string) (*model.Customer, error) {
	row := s.db.QueryRow(`SELECT `+customerCols+` FROM customers WHERE email = ?`, email)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer by email: %w", err)
	}
	return c, nil
}

func (s *CustomerStore) GetByStripeCustomerID(stripeID string) (*model.Customer, error) {
	row := s.db.QueryRow(`SELECT `+customerCols+` FROM customers WHERE stripe_customer_id = ?`, stripeID)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer by stripe id: %w", err)
	}
	return c, nil
}

// ListExpired returns ACTIVE customers whose expiration is strictly
// before the given instant.
func (s *CustomerStore) ListExpired(now time.Time) ([]model.Customer, error) {
	rows, err := s.db.Query(
		`SELECT `+customerCols+` FROM customers WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ? ORDER BY id ASC`,
		model.CustomerActive, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list expired customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (s *CustomerStore) UpdateStatus(id int64, status string) error {
	_, err := s.db.Exec(
		`UPDATE customers SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update customer status: %w", err)
	}
	return nil
}

// UpdateBilling sets the expiration, next billing date, and status in a
// single row update.
func (s *CustomerStore) UpdateBilling(id int64, expiresAt, nextBillingDate time.Time, status string) (*model.Customer, error) {
	_, err := s.db.Exec(
		`UPDATE customers SET expires_at = ?, next_billing_date = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		expiresAt.UTC(), nextBillingDate.UTC(), status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update customer billing: %w", err)
	}
	return s.GetByID(id)
}

func (s *CustomerStore) SetStripeCustomerID(id int64, stripeID string) error {
	_, err := s.db.Exec(
		`UPDATE customers SET stripe_customer_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		stripeID, id,
	)
	if err != nil {
		return fmt.Errorf("set stripe customer id: %w", err)
	}
	return nil
}

// SetExpiresAt is a test and admin helper for adjusting expiration
// without touching billing fields.
func (s *CustomerStore) SetExpiresAt(id int64, expiresAt *time.Time) error {
	var v any
	if expiresAt != nil {
		v = expiresAt.UTC()
	}
	_, err := s.db.Exec(
		`UPDATE customers SET expires_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		v, id,
	)
	if err != nil {
		return fmt.Errorf("set expires_at: %w", err)
	}
	return nil
}

func (s *CustomerStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}
