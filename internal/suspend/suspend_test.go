package suspend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/hostfold/hostfold/internal/database"
	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/model"
	"github.com/hostfold/hostfold/internal/store"
)

// fakePanel scripts per-command outcomes keyed by a readable call string.
type fakePanel struct {
	calls  []string
	failOn map[string]error
}

func callKey(cmd hestia.Command) string {
	switch c := cmd.(type) {
	case hestia.SuspendUser:
		return "suspend-user " + c.User
	case hestia.UnsuspendUser:
		return "unsuspend-user " + c.User
	case hestia.SuspendWebDomain:
		return "suspend-domain " + c.Domain
	case hestia.UnsuspendWebDomain:
		return "unsuspend-domain " + c.Domain
	default:
		return fmt.Sprintf("%T", cmd)
	}
}

func (f *fakePanel) Invoke(ctx context.Context, cmd hestia.Command, format hestia.Format) (*hestia.Result, error) {
	key := callKey(cmd)
	f.calls = append(f.calls, key)
	if err, ok := f.failOn[key]; ok {
		return &hestia.Result{ReturnCode: hestia.CodeNotExist}, err
	}
	return &hestia.Result{Success: true}, nil
}

type fixture struct {
	svc       *Service
	customers *store.CustomerStore
	websites  *store.WebsiteStore
	activity  *store.ActivityStore
	panel     *fakePanel
	customer  *model.Customer
}

func setup(t *testing.T, websiteDomains []string) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	customers := store.NewCustomerStore(db)
	websites := store.NewWebsiteStore(db)
	activity := store.NewActivityStore(db)
	panel := &fakePanel{failOn: map[string]error{}}

	customer, err := customers.Create("alice@example.com", "Alice", "alice", "pw", 3)
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	for _, d := range websiteDomains {
		w, err := websites.Create(customer.ID, d, d, model.WebsiteActive, "8.2", false, false)
		if err != nil {
			t.Fatalf("create website: %v", err)
		}
		_ = w
	}

	svc := NewService(customers, websites, activity, panel, slog.Default())
	return &fixture{svc: svc, customers: customers, websites: websites, activity: activity, panel: panel, customer: customer}
}

func TestSuspendFullSuccess(t *testing.T) {
	f := setup(t, []string{"a.host.test", "b.host.test"})

	res, err := f.svc.Suspend(context.Background(), f.customer.ID, nil)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}

	if res.Customer.Status != model.CustomerSuspended {
		t.Errorf("status = %q, want SUSPENDED", res.Customer.Status)
	}
	if len(res.Domains) != 2 {
		t.Fatalf("domain results = %d, want 2", len(res.Domains))
	}
	if res.Failed() != 0 {
		t.Errorf("failed = %d, want 0", res.Failed())
	}

	sites, _ := f.websites.ListByCustomer(f.customer.ID)
	for _, w := range sites {
		if w.Status != model.WebsiteSuspended {
			t.Errorf("website %s status = %q, want SUSPENDED", w.Subdomain, w.Status)
		}
	}

	entries, _ := f.activity.ListByResource("customer", f.customer.ID)
	if len(entries) != 1 {
		t.Fatalf("activity entries = %d, want 1", len(entries))
	}
	if entries[0].Action != "suspend" {
		t.Errorf("action = %q, want suspend", entries[0].Action)
	}
}

func TestSuspendPartialDomainFailure(t *testing.T) {
	f := setup(t, []string{"a.host.test", "b.host.test", "c.host.test"})
	f.panel.failOn["suspend-domain b.host.test"] = &hestia.CommandError{
		Cmd: "v-suspend-web-domain", ReturnCode: hestia.CodeNotExist, Text: "object does not exist",
	}

	res, err := f.svc.Suspend(context.Background(), f.customer.ID, nil)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}

	if res.Customer.Status != model.CustomerSuspended {
		t.Errorf("status = %q, want SUSPENDED despite domain failure", res.Customer.Status)
	}
	if len(res.Domains) != 3 {
		t.Fatalf("domain results = %d, want 3", len(res.Domains))
	}
	if res.Failed() != 1 {
		t.Errorf("failed = %d, want 1", res.Failed())
	}

	// The failed domain keeps its prior local status.
	w, _ := f.websites.GetBySubdomain("b.host.test")
	if w.Status != model.WebsiteActive {
		t.Errorf("failed domain status = %q, want ACTIVE", w.Status)
	}
	w, _ = f.websites.GetBySubdomain("a.host.test")
	if w.Status != model.WebsiteSuspended {
		t.Errorf("succeeded domain status = %q, want SUSPENDED", w.Status)
	}

	entries, _ := f.activity.ListByResource("customer", f.customer.ID)
	if len(entries) != 1 {
		t.Errorf("activity entries = %d, want exactly 1", len(entries))
	}
}

func TestSuspendUserLevelFailureAborts(t *testing.T) {
	f := setup(t, []string{"a.host.test"})
	f.panel.failOn["suspend-user alice"] = &hestia.CommandError{
		Cmd: "v-suspend-user", ReturnCode: hestia.CodeForbidden, Text: "operation forbidden",
	}

	_, err := f.svc.Suspend(context.Background(), f.customer.ID, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var cmdErr *hestia.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want wrapped *CommandError", err)
	}

	// No local mutation of any kind.
	c, _ := f.customers.GetByID(f.customer.ID)
	if c.Status != model.CustomerActive {
		t.Errorf("status = %q, want ACTIVE", c.Status)
	}
	w, _ := f.websites.GetBySubdomain("a.host.test")
	if w.Status != model.WebsiteActive {
		t.Errorf("website status = %q, want ACTIVE", w.Status)
	}
	entries, _ := f.activity.ListByResource("customer", f.customer.ID)
	if len(entries) != 0 {
		t.Errorf("activity entries = %d, want 0", len(entries))
	}

	// No domain-level commands after the gate failed.
	for _, call := range f.panel.calls {
		if call != "suspend-user alice" {
			t.Errorf("unexpected panel call %q", call)
		}
	}
}

func TestSuspendThenUnsuspendRestoresActive(t *testing.T) {
	f := setup(t, []string{"a.host.test"})

	if _, err := f.svc.Suspend(context.Background(), f.customer.ID, nil); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	res, err := f.svc.Unsuspend(context.Background(), f.customer.ID, nil)
	if err != nil {
		t.Fatalf("unsuspend: %v", err)
	}

	if res.Customer.Status != model.CustomerActive {
		t.Errorf("status = %q, want ACTIVE", res.Customer.Status)
	}
	w, _ := f.websites.GetBySubdomain("a.host.test")
	if w.Status != model.WebsiteActive {
		t.Errorf("website status = %q, want ACTIVE", w.Status)
	}
}

func TestUnsuspendUserLevelFailureKeepsSuspended(t *testing.T) {
	f := setup(t, nil)
	if _, err := f.svc.Suspend(context.Background(), f.customer.ID, nil); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	f.panel.failOn["unsuspend-user alice"] = &hestia.CommandError{
		Cmd: "v-unsuspend-user", ReturnCode: hestia.CodePassword, Text: "authentication rejected",
	}
	if _, err := f.svc.Unsuspend(context.Background(), f.customer.ID, nil); err == nil {
		t.Fatal("expected error")
	}

	c, _ := f.customers.GetByID(f.customer.ID)
	if c.Status != model.CustomerSuspended {
		t.Errorf("status = %q, want SUSPENDED (no optimistic local flip)", c.Status)
	}
}

func TestSuspendTwiceIsIdempotentLocally(t *testing.T) {
	f := setup(t, []string{"a.host.test"})

	if _, err := f.svc.Suspend(context.Background(), f.customer.ID, nil); err != nil {
		t.Fatalf("first suspend: %v", err)
	}
	res, err := f.svc.Suspend(context.Background(), f.customer.ID, nil)
	if err != nil {
		t.Fatalf("second suspend: %v", err)
	}

	if res.Customer.Status != model.CustomerSuspended {
		t.Errorf("status = %q, want SUSPENDED", res.Customer.Status)
	}
	entries, _ := f.activity.ListByResource("customer", f.customer.ID)
	if len(entries) != 2 {
		t.Errorf("activity entries = %d, want 2 (one per invocation)", len(entries))
	}
}

func TestSuspendPrefersCustomDomain(t *testing.T) {
	f := setup(t, nil)
	w, err := f.websites.Create(f.customer.ID, "shop", "shop.host.test", model.WebsiteActive, "8.2", false, false)
	if err != nil {
		t.Fatalf("create website: %v", err)
	}
	if _, err := f.websites.SetCustomDomain(w.ID, "shop.example.com"); err != nil {
		t.Fatalf("set custom domain: %v", err)
	}

	if _, err := f.svc.Suspend(context.Background(), f.customer.ID, nil); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	found := false
	for _, call := range f.panel.calls {
		if call == "suspend-domain shop.example.com" {
			found = true
		}
		if call == "suspend-domain shop.host.test" {
			t.Error("suspend used subdomain despite attached custom domain")
		}
	}
	if !found {
		t.Error("expected domain suspend for shop.example.com")
	}
}

func TestSuspendCustomerNotFound(t *testing.T) {
	f := setup(t, nil)

	_, err := f.svc.Suspend(context.Background(), 9999, nil)
	if !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("error = %v, want ErrCustomerNotFound", err)
	}
	if len(f.panel.calls) != 0 {
		t.Errorf("panel calls = %d, want 0", len(f.panel.calls))
	}
}
