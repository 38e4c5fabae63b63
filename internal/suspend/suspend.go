package suspend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/model"
	"github.com/hostfold/hostfold/internal/store"
)

var ErrCustomerNotFound = errors.New("customer not found")

// stepPolicy declares how a remote step's failure is treated: blocking
// steps gate all local mutation, best-effort steps are captured and
// reported without stopping the workflow.
type stepPolicy int

const (
	blocking stepPolicy = iota
	bestEffort
)

// DomainResult is the outcome of one domain-level panel command.
type DomainResult struct {
	WebsiteID int64  `json:"website_id"`
	Domain    string `json:"domain"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// Result carries the updated customer and the per-domain outcomes, so
// callers can surface partial failures without failing the request.
type Result struct {
	Customer *model.Customer `json:"customer"`
	Domains  []DomainResult  `json:"domains"`
}

// Failed counts domain steps that did not succeed.
func (r *Result) Failed() int {
	n := 0
	for _, d := range r.Domains {
		if !d.Success {
			n++
		}
	}
	return n
}

type Service struct {
	customers *store.CustomerStore
	websites  *store.WebsiteStore
	activity  *store.ActivityStore
	panel     hestia.Invoker
	logger    *slog.Logger
}

func NewService(cs *store.CustomerStore, ws *store.WebsiteStore, as *store.ActivityStore, panel hestia.Invoker, logger *slog.Logger) *Service {
	return &Service{customers: cs, websites: ws, activity: as, panel: panel, logger: logger}
}

// Suspend disables the customer's panel account and, best-effort, every
// associated web domain. The user-level command is the gate: if it
// fails nothing is written locally.
func (s *Service) Suspend(ctx context.Context, customerID int64, actorID *int64) (*Result, error) {
	return s.run(ctx, customerID, actorID, true)
}

// Unsuspend is the inverse of Suspend with the same gating rules.
func (s *Service) Unsuspend(ctx context.Context, customerID int64, actorID *int64) (*Result, error) {
	return s.run(ctx, customerID, actorID, false)
}

func (s *Service) run(ctx context.Context, customerID int64, actorID *int64, suspending bool) (*Result, error) {
	customer, err := s.customers.GetByID(customerID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	websites, err := s.websites.ListByCustomer(customerID)
	if err != nil {
		return nil, fmt.Errorf("load websites: %w", err)
	}

	action, userCmd, localStatus, websiteStatus := s.plan(customer, suspending)

	// The account-level gate: abort with no local mutation on failure.
	if err, abort := s.invokeStep(ctx, blocking, userCmd); abort {
		return nil, fmt.Errorf("%s %s: %w", action, customer.HestiaUsername, err)
	}

	// Per-site hardening: one misconfigured domain must not prevent the
	// account action, so each outcome is captured independently.
	domains := make([]DomainResult, 0, len(websites))
	for _, w := range websites {
		domain := w.Domain()
		var cmd hestia.Command
		if suspending {
			cmd = hestia.SuspendWebDomain{User: customer.HestiaUsername, Domain: domain}
		} else {
			cmd = hestia.UnsuspendWebDomain{User: customer.HestiaUsername, Domain: domain}
		}

		dr := DomainResult{WebsiteID: w.ID, Domain: domain, Success: true}
		if err, _ := s.invokeStep(ctx, bestEffort, cmd); err != nil {
			dr.Success = false
			dr.Error = err.Error()
			s.logger.Warn("domain step failed", "action", action, "domain", domain, "error", err)
		} else if err := s.websites.UpdateStatus(w.ID, websiteStatus); err != nil {
			return nil, fmt.Errorf("update website status: %w", err)
		}
		domains = append(domains, dr)
	}

	// The user-level action is authoritative for local customer status.
	if err := s.customers.UpdateStatus(customerID, localStatus); err != nil {
		return nil, fmt.Errorf("update customer status: %w", err)
	}
	customer, err = s.customers.GetByID(customerID)
	if err != nil {
		return nil, fmt.Errorf("reload customer: %w", err)
	}

	result := &Result{Customer: customer, Domains: domains}

	meta, _ := json.Marshal(map[string]any{
		"websites": len(websites),
		"failed":   result.Failed(),
	})
	if _, err := s.activity.Append(actorID, action, "customer", customerID,
		fmt.Sprintf("%s account %s (%d websites, %d domain failures)", action, customer.HestiaUsername, len(websites), result.Failed()),
		"success", string(meta)); err != nil {
		s.logger.Error("append activity", "error", err)
	}

	return result, nil
}

func (s *Service) plan(customer *model.Customer, suspending bool) (action string, userCmd hestia.Command, localStatus, websiteStatus string) {
	if suspending {
		return "suspend", hestia.SuspendUser{User: customer.HestiaUsername},
			model.CustomerSuspended, model.WebsiteSuspended
	}
	return "unsuspend", hestia.UnsuspendUser{User: customer.HestiaUsername},
		model.CustomerActive, model.WebsiteActive
}

// invokeStep dispatches one panel command under its declared policy.
// The bool reports whether the workflow must abort, true only when a
// blocking step fails.
func (s *Service) invokeStep(ctx context.Context, pol stepPolicy, cmd hestia.Command) (error, bool) {
	_, err := s.panel.Invoke(ctx, cmd, hestia.FormatDefault)
	if err != nil {
		return err, pol == blocking
	}
	return nil, false
}
