package expire

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/model"
	"github.com/hostfold/hostfold/internal/store"
)

// Detail records the outcome for one scanned customer.
type Detail struct {
	CustomerID int64  `json:"customer_id"`
	Email      string `json:"email"`
	Suspended  bool   `json:"suspended"`
	Error      string `json:"error,omitempty"`
}

// Report is the tally of one scan run.
type Report struct {
	Processed int      `json:"processed"`
	Suspended int      `json:"suspended"`
	Failed    int      `json:"failed"`
	Details   []Detail `json:"details"`
}

// Scanner finds lapsed customers and drives them into suspension. It is
// triggered by an external scheduled caller, not an internal timer.
type Scanner struct {
	customers *store.CustomerStore
	websites  *store.WebsiteStore
	activity  *store.ActivityStore
	panel     hestia.Invoker
	logger    *slog.Logger
	now       func() time.Time
}

func NewScanner(cs *store.CustomerStore, ws *store.WebsiteStore, as *store.ActivityStore, panel hestia.Invoker, logger *slog.Logger) *Scanner {
	return &Scanner{customers: cs, websites: ws, activity: as, panel: panel, logger: logger, now: time.Now}
}

// Run suspends every ACTIVE customer whose expiration has passed.
// Customers are processed sequentially; a remote failure records the
// customer as failed and leaves it ACTIVE locally, so local state never
// claims a suspension the panel did not perform. A repeat run skips
// everything already suspended because the selection predicate no
// longer matches.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	expired, err := s.customers.ListExpired(s.now())
	if err != nil {
		return nil, fmt.Errorf("list expired customers: %w", err)
	}

	report := &Report{Processed: len(expired)}
	for _, c := range expired {
		detail := Detail{CustomerID: c.ID, Email: c.Email}

		if err := s.suspendOne(ctx, &c); err != nil {
			detail.Error = err.Error()
			report.Failed++
			s.logger.Warn("expiration suspend failed", "customer", c.Email, "error", err)
		} else {
			detail.Suspended = true
			report.Suspended++
		}
		report.Details = append(report.Details, detail)
	}

	s.logger.Info("expiration scan complete",
		"processed", report.Processed, "suspended", report.Suspended, "failed", report.Failed)
	return report, nil
}

func (s *Scanner) suspendOne(ctx context.Context, c *model.Customer) error {
	// Local suspension is gated on the remote call succeeding.
	if _, err := s.panel.Invoke(ctx, hestia.SuspendUser{User: c.HestiaUsername}, hestia.FormatDefault); err != nil {
		return fmt.Errorf("remote suspend: %w", err)
	}

	if err := s.customers.UpdateStatus(c.ID, model.CustomerSuspended); err != nil {
		return fmt.Errorf("update customer status: %w", err)
	}
	if _, err := s.websites.UpdateStatusByCustomer(c.ID, model.WebsiteSuspended); err != nil {
		return fmt.Errorf("update website statuses: %w", err)
	}

	expiredAt := ""
	if c.ExpiresAt != nil {
		expiredAt = c.ExpiresAt.UTC().Format(time.RFC3339)
	}
	meta, _ := json.Marshal(map[string]any{"expired_at": expiredAt})
	// actor nil: system-attributed.
	if _, err := s.activity.Append(nil, "expire", "customer", c.ID,
		fmt.Sprintf("subscription expired %s, account %s suspended", expiredAt, c.HestiaUsername),
		"success", string(meta)); err != nil {
		s.logger.Error("append activity", "error", err)
	}
	return nil
}
