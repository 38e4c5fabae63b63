package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hostfold/hostfold/internal/database"
	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/store"
)

type fakePanel struct{}

func (fakePanel) Invoke(ctx context.Context, cmd hestia.Command, format hestia.Format) (*hestia.Result, error) {
	return &hestia.Result{Success: true}, nil
}

// setup builds a routable server plus one session per role.
func setup(t *testing.T) (http.Handler, map[string]string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	admins := store.NewAdminUserStore(db)
	sessions := store.NewSessionStore(db)
	customers := store.NewCustomerStore(db)
	if _, err := customers.Create("alice@example.com", "Alice", "alice", "pw", 3); err != nil {
		t.Fatalf("create customer: %v", err)
	}

	tokens := map[string]string{}
	for _, role := range []string{"admin", "viewer"} {
		u, err := admins.Create(role+"@example.com", role, "hash", role)
		if err != nil {
			t.Fatalf("create %s: %v", role, err)
		}
		sess, err := sessions.Create(u.ID)
		if err != nil {
			t.Fatalf("create session: %v", err)
		}
		tokens[role] = sess.Token
	}

	srv := New(db, fakePanel{}, Config{PrimaryDomain: "host.test"}, slog.Default())
	return srv.Router(), tokens
}

func do(t *testing.T, router http.Handler, token, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "hostfold_session", Value: token})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMutatingRoutesRejectViewer(t *testing.T) {
	router, tokens := setup(t)

	routes := []struct{ method, path, body string }{
		{"POST", "/api/websites", `{"customer_email": "alice@example.com", "name": "shop"}`},
		{"POST", "/api/websites/1/custom-domain", `{"domain": "shop.example.com"}`},
		{"POST", "/api/websites/1/ssl", ""},
		{"POST", "/api/databases", `{"customer_email": "alice@example.com", "name": "wp"}`},
		{"POST", "/api/customers/1/suspend", ""},
		{"POST", "/api/customers/1/unsuspend", ""},
		{"POST", "/api/customers/1/extend", `{"months": 1}`},
		{"POST", "/api/backups/now", ""},
	}

	for _, rt := range routes {
		rec := do(t, router, tokens["viewer"], rt.method, rt.path, rt.body)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s as viewer: status = %d, want 403", rt.method, rt.path, rec.Code)
		}
	}
}

func TestViewerCanRead(t *testing.T) {
	router, tokens := setup(t)

	rec := do(t, router, tokens["viewer"], "GET", "/api/customers/1", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET customer as viewer: status = %d, want 200", rec.Code)
	}
	rec = do(t, router, tokens["viewer"], "GET", "/api/customers/1/activity", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET activity as viewer: status = %d, want 200", rec.Code)
	}
}

func TestAdminCanProvision(t *testing.T) {
	router, tokens := setup(t)

	rec := do(t, router, tokens["admin"], "POST", "/api/websites",
		`{"customer_email": "alice@example.com", "name": "shop"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("POST website as admin: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestUnauthenticatedRejected(t *testing.T) {
	router, _ := setup(t)

	rec := do(t, router, "", "POST", "/api/websites", `{"customer_email": "alice@example.com", "name": "shop"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
