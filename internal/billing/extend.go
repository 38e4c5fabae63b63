package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/model"
	"github.com/hostfold/hostfold/internal/store"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrMonthsOutOfRange = errors.New("months must be between 1 and 12")
)

// Extension is the outcome of one billing extension. Reactivation is a
// best-effort remote step: its failure is reported here, never allowed
// to block the billing update itself.
type Extension struct {
	Customer        *model.Customer `json:"customer"`
	Reactivated     bool            `json:"reactivated"`
	ReactivateError string          `json:"reactivate_error,omitempty"`
}

type Service struct {
	customers *store.CustomerStore
	websites  *store.WebsiteStore
	activity  *store.ActivityStore
	panel     hestia.Invoker
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(cs *store.CustomerStore, ws *store.WebsiteStore, as *store.ActivityStore, panel hestia.Invoker, logger *slog.Logger) *Service {
	return &Service{customers: cs, websites: ws, activity: as, panel: panel, logger: logger, now: time.Now}
}

// Extend pushes the customer's expiration out by the given number of
// months. A still-valid subscription extends from its current
// expiration; a lapsed or unset one restarts from now. Billing truth is
// local-first: the row is updated regardless of whether the remote
// reactivation succeeds.
func (s *Service) Extend(ctx context.Context, customerID int64, months int, actorID *int64) (*Extension, error) {
	if months < 1 || months > 12 {
		return nil, ErrMonthsOutOfRange
	}

	customer, err := s.customers.GetByID(customerID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	now := s.now().UTC()
	base := now
	if customer.ExpiresAt != nil && customer.ExpiresAt.After(now) {
		base = customer.ExpiresAt.UTC()
	}
	newExpiry := base.AddDate(0, months, 0)

	wasSuspended := customer.Status == model.CustomerSuspended

	updated, err := s.customers.UpdateBilling(customerID, newExpiry, newExpiry, model.CustomerActive)
	if err != nil {
		return nil, fmt.Errorf("update billing: %w", err)
	}

	ext := &Extension{Customer: updated}
	if wasSuspended {
		// Remote reactivation can be retried or reconciled later.
		if _, err := s.panel.Invoke(ctx, hestia.UnsuspendUser{User: customer.HestiaUsername}, hestia.FormatDefault); err != nil {
			ext.ReactivateError = err.Error()
			s.logger.Warn("remote reactivation failed", "customer", customer.Email, "error", err)
		} else {
			ext.Reactivated = true
			if _, err := s.websites.UpdateStatusByCustomer(customerID, model.WebsiteActive); err != nil {
				return nil, fmt.Errorf("update website statuses: %w", err)
			}
		}
	}

	meta, _ := json.Marshal(map[string]any{
		"months":     months,
		"expires_at": newExpiry.Format(time.RFC3339),
	})
	if _, err := s.activity.Append(actorID, "extend", "customer", customerID,
		fmt.Sprintf("subscription extended %d month(s), now expires %s", months, newExpiry.Format("2006-01-02")),
		"success", string(meta)); err != nil {
		s.logger.Error("append activity", "error", err)
	}

	return ext, nil
}
