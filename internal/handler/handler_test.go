package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hostfold/hostfold/internal/billing"
	"github.com/hostfold/hostfold/internal/database"
	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/model"
	"github.com/hostfold/hostfold/internal/provision"
	"github.com/hostfold/hostfold/internal/store"
	"github.com/hostfold/hostfold/internal/suspend"
	"github.com/hostfold/hostfold/internal/websocket"
)

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
	case hestia.AddWebDomain:
		return "add-domain " + c.Domain
	default:
		return fmt.Sprintf("%T", cmd)
	}
}

func (f *fakePanel) Invoke(ctx context.Context, cmd hestia.Command, format hestia.Format) (*hestia.Result, error) {
	key := callKey(cmd)
	f.calls = append(f.calls, key)
	if err, ok := f.failOn[key]; ok {
		return &hestia.Result{ReturnCode: hestia.CodeForbidden}, err
	}
	return &hestia.Result{Success: true}, nil
}

type fixture struct {
	customerH *CustomerHandler
	websiteH  *WebsiteHandler
	customers *store.CustomerStore
	websites  *store.WebsiteStore
	panel     *fakePanel
	customer  *model.Customer
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	customers := store.NewCustomerStore(db)
	websites := store.NewWebsiteStore(db)
	databases := store.NewDatabaseStore(db)
	packages := store.NewPackageStore(db)
	activity := store.NewActivityStore(db)
	panel := &fakePanel{failOn: map[string]error{}}
	logger := slog.Default()
	hub := websocket.NewHub(logger)

	suspendSvc := suspend.NewService(customers, websites, activity, panel, logger)
	billingSvc := billing.NewService(customers, websites, activity, panel, logger)
	provisionSvc := provision.NewService(customers, websites, databases, packages, activity, panel, "host.test", logger)

	customer, err := customers.Create("alice@example.com", "Alice", "alice", "pw", 3)
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}

	return &fixture{
		customerH: NewCustomerHandler(customers, websites, activity, suspendSvc, billingSvc, hub, logger),
		websiteH:  NewWebsiteHandler(provisionSvc, hub, logger),
		customers: customers,
		websites:  websites,
		panel:     panel,
		customer:  customer,
	}
}

func doRequest(t *testing.T, h http.HandlerFunc, method, path, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if id != "" {
		req.SetPathValue("id", id)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestSuspendEndpoint(t *testing.T) {
	f := setup(t)
	f.websites.Create(f.customer.ID, "Shop", "shop.host.test", model.WebsiteActive, "8.2", false, false)

	rec := doRequest(t, f.customerH.Suspend, "POST", "/api/customers/1/suspend", "1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got, _ := f.customers.GetByID(f.customer.ID)
	if got.Status != model.CustomerSuspended {
		t.Errorf("customer status = %q, want SUSPENDED", got.Status)
	}
}

func TestSuspendPartialFailureReturns207(t *testing.T) {
	f := setup(t)
	f.websites.Create(f.customer.ID, "A", "a.host.test", model.WebsiteActive, "8.2", false, false)
	f.websites.Create(f.customer.ID, "B", "b.host.test", model.WebsiteActive, "8.2", false, false)
	f.panel.failOn["suspend-domain b.host.test"] = &hestia.CommandError{Cmd: "v-suspend-web-domain", ReturnCode: hestia.CodeNotExist}

	rec := doRequest(t, f.customerH.Suspend, "POST", "/api/customers/1/suspend", "1", "")
	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207", rec.Code)
	}

	got, _ := f.customers.GetByID(f.customer.ID)
	if got.Status != model.CustomerSuspended {
		t.Errorf("customer status = %q, want SUSPENDED despite domain failure", got.Status)
	}
}

func TestSuspendUserLevelFailureReturns502(t *testing.T) {
	f := setup(t)
	f.panel.failOn["suspend-user alice"] = fmt.Errorf("%w: v-suspend-user: dial tcp", hestia.ErrTransport)

	rec := doRequest(t, f.customerH.Suspend, "POST", "/api/customers/1/suspend", "1", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	got, _ := f.customers.GetByID(f.customer.ID)
	if got.Status != model.CustomerActive {
		t.Errorf("customer status = %q, want ACTIVE after aborted suspension", got.Status)
	}
}

func TestSuspendForbiddenIncludesWhitelistGuidance(t *testing.T) {
	f := setup(t)
	f.panel.failOn["suspend-user alice"] = &hestia.CommandError{
		Cmd:        "v-suspend-user",
		ReturnCode: hestia.CodeForbidden,
		Text:       "operation forbidden",
	}

	rec := doRequest(t, f.customerH.Suspend, "POST", "/api/customers/1/suspend", "1", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "whitelist this server's IP") {
		t.Errorf("body = %s, want IP whitelist guidance", rec.Body.String())
	}

	got, _ := f.customers.GetByID(f.customer.ID)
	if got.Status != model.CustomerActive {
		t.Errorf("customer status = %q, want ACTIVE after refused suspension", got.Status)
	}
}

func TestSuspendUnknownCustomer(t *testing.T) {
	f := setup(t)
	rec := doRequest(t, f.customerH.Suspend, "POST", "/api/customers/99/suspend", "99", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestExtendEndpoint(t *testing.T) {
	f := setup(t)

	rec := doRequest(t, f.customerH.Extend, "POST", "/api/customers/1/extend", "1", `{"months": 3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got, _ := f.customers.GetByID(f.customer.ID)
	if got.ExpiresAt == nil {
		t.Fatal("expires_at not set")
	}
}

func TestExtendInvalidMonths(t *testing.T) {
	f := setup(t)

	rec := doRequest(t, f.customerH.Extend, "POST", "/api/customers/1/extend", "1", `{"months": 13}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateWebsiteEndpoint(t *testing.T) {
	f := setup(t)

	rec := doRequest(t, f.websiteH.Create, "POST", "/api/websites", "",
		`{"customer_email": "alice@example.com", "name": "My Blog"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var w model.Website
	if err := json.Unmarshal(rec.Body.Bytes(), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Subdomain != "my-blog.host.test" {
		t.Errorf("subdomain = %q", w.Subdomain)
	}
}

func TestCreateWebsiteConflict(t *testing.T) {
	f := setup(t)

	first := doRequest(t, f.websiteH.Create, "POST", "/api/websites", "",
		`{"customer_email": "alice@example.com", "name": "shop"}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("first status = %d", first.Code)
	}

	second := doRequest(t, f.websiteH.Create, "POST", "/api/websites", "",
		`{"customer_email": "alice@example.com", "name": "shop"}`)
	if second.Code != http.StatusConflict {
		t.Fatalf("second status = %d, want 409", second.Code)
	}
}

func TestCreateWebsiteMissingFields(t *testing.T) {
	f := setup(t)
	rec := doRequest(t, f.websiteH.Create, "POST", "/api/websites", "", `{"name": "shop"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetCustomerWithWebsites(t *testing.T) {
	f := setup(t)
	f.websites.Create(f.customer.ID, "Shop", "shop.host.test", model.WebsiteActive, "8.2", false, false)

	rec := doRequest(t, f.customerH.Get, "GET", "/api/customers/1", "1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Customer model.Customer  `json:"customer"`
		Websites []model.Website `json:"websites"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Customer.Email != "alice@example.com" {
		t.Errorf("email = %q", body.Customer.Email)
	}
	if len(body.Websites) != 1 {
		t.Errorf("websites = %d, want 1", len(body.Websites))
	}
}
