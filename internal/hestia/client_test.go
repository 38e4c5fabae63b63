package hestia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := Config{Host: "panel.example.com", Port: 8083, User: "admin", Password: "secret"}
	return NewClient(cfg, WithBaseURL(srv.URL))
}

func TestInvokeSuccess(t *testing.T) {
	var gotForm map[string]string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Write([]byte("0"))
	})

	res, err := c.Invoke(context.Background(), SuspendUser{User: "alice"}, FormatDefault)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !res.Success {
		t.Error("expected success")
	}
	if res.ReturnCode != CodeOK {
		t.Errorf("return code = %d, want 0", res.ReturnCode)
	}

	if gotForm["cmd"] != "v-suspend-user" {
		t.Errorf("cmd = %q, want v-suspend-user", gotForm["cmd"])
	}
	if gotForm["arg1"] != "alice" {
		t.Errorf("arg1 = %q, want alice", gotForm["arg1"])
	}
	if gotForm["user"] != "admin" || gotForm["password"] != "secret" {
		t.Error("principal credentials not sent")
	}
	if gotForm["returncode"] != "yes" {
		t.Errorf("returncode = %q, want yes", gotForm["returncode"])
	}
}

func TestInvokeApplicationFailure(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("3"))
	})

	res, err := c.Invoke(context.Background(), SuspendUser{User: "ghost"}, FormatDefault)
	if err == nil {
		t.Fatal("expected error")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want *CommandError", err)
	}
	if cmdErr.ReturnCode != CodeNotExist {
		t.Errorf("return code = %d, want %d", cmdErr.ReturnCode, CodeNotExist)
	}
	if cmdErr.Forbidden() {
		t.Error("not-exist should not classify as forbidden")
	}
	if res == nil || res.Success {
		t.Error("result should be populated and unsuccessful")
	}
}

func TestInvokeForbidden(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("6"))
	})

	_, err := c.Invoke(context.Background(), UnsuspendUser{User: "alice"}, FormatDefault)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want *CommandError", err)
	}
	if !cmdErr.Forbidden() {
		t.Error("code 6 should classify as forbidden")
	}
}

func TestInvokeTransportFailure(t *testing.T) {
	cfg := Config{Host: "panel.example.com", Port: 8083, User: "admin", Password: "secret"}
	// Point at a server that is immediately closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	c := NewClient(cfg, WithBaseURL(url))

	_, err := c.Invoke(context.Background(), SuspendUser{User: "alice"}, FormatDefault)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		t.Error("transport failure must not classify as *CommandError")
	}
}

func TestInvokeJSONFormat(t *testing.T) {
	var gotForm map[string]string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Write([]byte(`{"example.com": {"IP": "10.0.0.1"}}`))
	})

	res, err := c.Invoke(context.Background(), ListWebDomains{User: "alice"}, FormatJSON)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !res.Success {
		t.Error("expected success")
	}
	if len(res.Data) == 0 {
		t.Error("expected data payload")
	}
	if gotForm["arg2"] != "json" {
		t.Errorf("arg2 = %q, want json (format appended after user)", gotForm["arg2"])
	}
	if gotForm["returncode"] != "no" {
		t.Errorf("returncode = %q, want no for json format", gotForm["returncode"])
	}
}

func TestInvokeJSONFormatErrorBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Error: api access forbidden"))
	})

	_, err := c.Invoke(context.Background(), ListWebDomains{User: "alice"}, FormatJSON)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want *CommandError", err)
	}
	if cmdErr.Text != "Error: api access forbidden" {
		t.Errorf("text = %q", cmdErr.Text)
	}
}

func TestInvokeOutputBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("backup scheduled"))
	})

	res, err := c.Invoke(context.Background(), BackupUser{User: "alice"}, FormatDefault)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if res.Output != "backup scheduled" {
		t.Errorf("output = %q", res.Output)
	}
}
