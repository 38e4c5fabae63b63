package store

import (
	"database/sql"
	"fmt"

	"github.com/hostfold/hostfold/internal/model"
)

type AdminUserStore struct {
	db *sql.DB
}

func NewAdminUserStore(db *sql.DB) *AdminUserStore {
	return &AdminUserStore{db: db}
}

func scanAdminUser(scanner interface{ Scan(...any) error }) (*model.AdminUser, error) {
	var u model.AdminUser
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const adminUserCols = `id, email, name, password_hash, role, created_at, updated_at`

func (s *AdminUserStore) Create(email, name, passwordHash, role string) (*model.AdminUser, error) {
	result, err := s.db.Exec(
		`INSERT INTO admin_users (email, name, password_hash, role) VALUES (?, ?, ?, ?)`,
		email, name, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert admin user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AdminUserStore) GetByID(id int64) (*model.AdminUser, error) {
	row := s.db.QueryRow(`SELECT `+adminUserCols+` FROM admin_users WHERE id = ?`, id)
	u, err := scanAdminUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin user: %w", err)
	}
	return u, nil
}

func (s *AdminUserStore) GetByEmail(email string) (*model.AdminUser, error) {
	row := s.db.QueryRow(`SELECT `+adminUserCols+` FROM admin_users WHERE email = ?`, email)
	u, err := scanAdminUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin user by email: %w", err)
	}
	return u, nil
}
