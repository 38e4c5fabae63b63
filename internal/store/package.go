package store

import (
	"database/sql"
	"fmt"

	"github.com/hostfold/hostfold/internal/model"
)

type PackageStore struct {
	db *sql.DB
}

func NewPackageStore(db *sql.DB) *PackageStore {
	return &PackageStore{db: db}
}

func scanPackage(scanner interface{ Scan(...any) error }) (*model.Package, error) {
	var p model.Package
	err := scanner.Scan(&p.ID, &p.Name, &p.WebsiteLimit, &p.DatabaseLimit, &p.DiskQuotaMB, &p.PriceCents, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const packageCols = `id, name, website_limit, database_limit, disk_quota_mb, price_cents, created_at`

func (s *PackageStore) GetByID(id int64) (*model.Package, error) {
	row := s.db.QueryRow(`SELECT `+packageCols+` FROM packages WHERE id = ?`, id)
	p, err := scanPackage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}
	return p, nil
}

func (s *PackageStore) GetByName(name string) (*model.Package, error) {
	row := s.db.QueryRow(`SELECT `+packageCols+` FROM packages WHERE name = ?`, name)
	p, err := scanPackage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get package by name: %w", err)
	}
	return p, nil
}

func (s *PackageStore) List() ([]model.Package, error) {
	rows, err := s.db.Query(`SELECT ` + packageCols + ` FROM packages ORDER BY price_cents ASC`)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var packages []model.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		packages = append(packages, *p)
	}
	return packages, rows.Err()
}
