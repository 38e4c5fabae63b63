package store

import (
	"database/sql"
	"fmt"

	"github.com/hostfold/hostfold/internal/model"
)

type DatabaseStore struct {
	db *sql.DB
}

func NewDatabaseStore(db *sql.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func scanDatabase(scanner interface{ Scan(...any) error }) (*model.Database, error) {
	var d model.Database
	err := scanner.Scan(&d.ID, &d.CustomerID, &d.Name, &d.Username, &d.Password, &d.Host, &d.Port, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

const databaseCols = `id, customer_id, name, username, password, host, port, created_at`

func (s *DatabaseStore) Create(customerID int64, name, username, password, host string, port int) (*model.Database, error) {
	result, err := s.db.Exec(
		`INSERT INTO databases (customer_id, name, username, password, host, port) VALUES (?, ?, ?, ?, ?, ?)`,
		customerID, name, username, password, host, port,
	)
	if err != nil {
		return nil, fmt.Errorf("insert database: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+databaseCols+` FROM databases WHERE id = ?`, id)
	return scanDatabase(row)
}

func (s *DatabaseStore) GetByName(customerID int64, name string) (*model.Database, error) {
	row := s.db.QueryRow(
		`SELECT `+databaseCols+` FROM databases WHERE customer_id = ? AND name = ?`,
		customerID, name,
	)
	d, err := scanDatabase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get database by name: %w", err)
	}
	return d, nil
}

func (s *DatabaseStore) ListByCustomer(customerID int64) ([]model.Database, error) {
	rows, err := s.db.Query(
		`SELECT `+databaseCols+` FROM databases WHERE customer_id = ? ORDER BY id ASC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	defer rows.Close()

	var databases []model.Database
	for rows.Next() {
		d, err := scanDatabase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan database: %w", err)
		}
		databases = append(databases, *d)
	}
	return databases, rows.Err()
}

func (s *DatabaseStore) CountByCustomer(customerID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM databases WHERE customer_id = ?`, customerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count databases: %w", err)
	}
	return count, nil
}

func (s *DatabaseStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM databases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete database: %w", err)
	}
	return nil
}
