package store

import (
	"database/sql"
	"fmt"

	"github.com/hostfold/hostfold/internal/model"
)

type WebsiteStore struct {
	db *sql.DB
}

func NewWebsiteStore(db *sql.DB) *WebsiteStore {
	return &WebsiteStore{db: db}
}

func scanWebsite(scanner interface{ Scan(...any) error }) (*model.Website, error) {
	var w model.Website
	var customDomain sql.NullString

	err := scanner.Scan(
		&w.ID, &w.CustomerID, &w.Name, &w.Subdomain, &customDomain,
		&w.Status, &w.SSLEnabled, &w.SSLForce, &w.SSLVerified, &w.PHPVersion,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if customDomain.Valid {
		w.CustomDomain = &customDomain.String
	}
	return &w, nil
}

const websiteCols = `id, customer_id, name, subdomain, custom_domain, status, ssl_enabled, ssl_force, ssl_verified, php_version, created_at, updated_at`

func (s *WebsiteStore) Create(customerID int64, name, subdomain, status, phpVersion string, sslEnabled, sslForce bool) (*model.Website, error) {
	result, err := s.db.Exec(
		`INSERT INTO websites (customer_id, name, subdomain, status, php_version, ssl_enabled, ssl_force) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		customerID, name, subdomain, status, phpVersion, sslEnabled, sslForce,
	)
	if err != nil {
		return nil, fmt.Errorf("insert website: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *WebsiteStore) GetByID(id int64) (*model.Website, error) {
	row := s.db.QueryRow(`SELECT `+websiteCols+` FROM websites WHERE id = ?`, id)
	w, err := scanWebsite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get website: %w", err)
	}
	return w, nil
}

func (s *WebsiteStore) GetBySubdomain(subdomain string) (*model.Website, error) {
	row := s.db.QueryRow(`SELECT `+websiteCols+` FROM websites WHERE subdomain = ?`, subdomain)
	w, err := scanWebsite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get website by subdomain: %w", err)
	}
	return w, nil
}

func (s *WebsiteStore) GetByCustomDomain(domain string) (*model.Website, error) {
	row := s.db.QueryRow(`SELECT `+websiteCols+` FROM websites WHERE custom_domain = ?`, domain)
	w, err := scanWebsite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get website by custom domain: %w", err)
	}
	return w, nil
}

func (s *WebsiteStore) ListByCustomer(customerID int64) ([]model.Website, error) {
	rows, err := s.db.Query(
		`SELECT `+websiteCols+` FROM websites WHERE customer_id = ? ORDER BY id ASC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list websites: %w", err)
	}
	defer rows.Close()

	var websites []model.Website
	for rows.Next() {
		w, err := scanWebsite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan website: %w", err)
		}
		websites = append(websites, *w)
	}
	return websites, rows.Err()
}

func (s *WebsiteStore) CountByCustomer(customerID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM websites WHERE customer_id = ?`, customerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count websites: %w", err)
	}
	return count, nil
}

func (s *WebsiteStore) UpdateStatus(id int64, status string) error {
	_, err := s.db.Exec(
		`UPDATE websites SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update website status: %w", err)
	}
	return nil
}

// UpdateStatusByCustomer bulk-updates every website owned by a customer.
func (s *WebsiteStore) UpdateStatusByCustomer(customerID int64, status string) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE websites SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE customer_id = ?`,
		status, customerID,
	)
	if err != nil {
		return 0, fmt.Errorf("bulk update website status: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

func (s *WebsiteStore) SetCustomDomain(id int64, domain string) (*model.Website, error) {
	_, err := s.db.Exec(
		`UPDATE websites SET custom_domain = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		domain, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set custom domain: %w", err)
	}
	return s.GetByID(id)
}

func (s *WebsiteStore) UpdateSSL(id int64, enabled, force, verified bool, status string) (*model.Website, error) {
	_, err := s.db.Exec(
		`UPDATE websites SET ssl_enabled = ?, ssl_force = ?, ssl_verified = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		enabled, force, verified, status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update website ssl: %w", err)
	}
	return s.GetByID(id)
}
