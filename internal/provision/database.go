package provision

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/model"
)

// CreateDatabase creates a database on the remote panel and mirrors it
// locally. The panel names databases and users USER_NAME, so the local
// row stores the fully qualified names.
func (s *Service) CreateDatabase(ctx context.Context, customerEmail, name string, actorID *int64) (*model.Database, error) {
	customer, err := s.customers.GetByEmail(customerEmail)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	slug := Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	pkg, err := s.packages.GetByID(customer.PackageID)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	if pkg != nil && pkg.DatabaseLimit > 0 {
		count, err := s.databases.CountByCustomer(customer.ID)
		if err != nil {
			return nil, fmt.Errorf("count databases: %w", err)
		}
		if count >= pkg.DatabaseLimit {
			return nil, &QuotaError{Resource: "database", Limit: pkg.DatabaseLimit, Current: count}
		}
	}

	fullName := customer.HestiaUsername + "_" + slug
	existing, err := s.databases.GetByName(customer.ID, fullName)
	if err != nil {
		return nil, fmt.Errorf("check database: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseExists, fullName)
	}

	password, err := randomSecret()
	if err != nil {
		return nil, err
	}

	// Blocking: the local row mirrors a database the panel actually created.
	if _, err := s.panel.Invoke(ctx, hestia.AddDatabase{
		User:     customer.HestiaUsername,
		Database: slug,
		DBUser:   slug,
		Password: password,
	}, hestia.FormatDefault); err != nil {
		return nil, fmt.Errorf("add database %s: %w", fullName, err)
	}

	db, err := s.databases.Create(customer.ID, fullName, fullName, password, "localhost", 3306)
	if err != nil {
		return nil, fmt.Errorf("insert database: %w", err)
	}

	meta, _ := json.Marshal(map[string]any{"database": fullName})
	if _, err := s.activity.Append(actorID, "create_database", "database", db.ID,
		fmt.Sprintf("database %s provisioned for %s", fullName, customer.Email),
		"success", string(meta)); err != nil {
		s.logger.Error("append activity", "error", err)
	}

	return db, nil
}
