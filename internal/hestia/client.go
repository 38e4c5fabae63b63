package hestia

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Format selects the panel's output format for a command.
type Format string

const (
	FormatDefault Format = ""
	FormatJSON    Format = "json"
)

// Config is the principal for panel calls: usually an admin credential
// acting on behalf of customers, occasionally a customer's own
// credential for verification calls. It is always passed explicitly;
// nothing is read from process-wide state.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	// Insecure skips TLS verification; panels commonly run on
	// self-signed certificates.
	Insecure bool
}

// Result is the uniform shape every panel command resolves to.
type Result struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Output     string          `json:"output,omitempty"`
	ReturnCode int             `json:"return_code"`
	ErrorText  string          `json:"error,omitempty"`
}

// Invoker dispatches one panel command. The concrete Client carries no
// retries and no timeout; wrap it in Retrying or bound the context when
// the call site needs either.
type Invoker interface {
	Invoke(ctx context.Context, cmd Command, format Format) (*Result, error)
}

// Client invokes commands against the panel's HTTPS API endpoint.
type Client struct {
	cfg  Config
	http *resty.Client
}

type Option func(*Client)

// WithBaseURL overrides the URL derived from Config, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.http.SetBaseURL(baseURL)
	}
}

// NewClient builds a panel client for the given principal.
func NewClient(cfg Config, opts ...Option) *Client {
	http := resty.New().
		SetBaseURL(fmt.Sprintf("https://%s:%d", cfg.Host, cfg.Port)).
		SetHeader("Accept", "application/json")
	if cfg.Insecure {
		http.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	c := &Client{cfg: cfg, http: http}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke posts one command as a credentialed form request and classifies
// the outcome. Transport failures wrap ErrTransport; a non-zero panel
// return code yields the populated Result plus a *CommandError.
func (c *Client) Invoke(ctx context.Context, cmd Command, format Format) (*Result, error) {
	form := map[string]string{
		"user":     c.cfg.User,
		"password": c.cfg.Password,
		"cmd":      cmd.name(),
	}

	args := cmd.args()
	if format == FormatJSON {
		args = append(args, string(FormatJSON))
		form["returncode"] = "no"
	} else {
		form["returncode"] = "yes"
	}
	for i, a := range args {
		form["arg"+strconv.Itoa(i+1)] = a
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/api/")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransport, cmd.name(), err)
	}

	body := strings.TrimSpace(resp.String())

	if format == FormatJSON {
		return c.parseJSON(cmd, resp.StatusCode(), body)
	}
	return c.parsePlain(cmd, resp.StatusCode(), body)
}

func (c *Client) parsePlain(cmd Command, status int, body string) (*Result, error) {
	// With returncode=yes the body is the command's numeric exit code.
	if code, err := strconv.Atoi(body); err == nil {
		if code == CodeOK {
			return &Result{Success: true, ReturnCode: CodeOK}, nil
		}
		cmdErr := &CommandError{Cmd: cmd.name(), ReturnCode: code, Text: codeText(code)}
		return &Result{ReturnCode: code, ErrorText: cmdErr.Text}, cmdErr
	}

	// Some panel builds answer with output text instead of a bare code.
	if status < 400 {
		return &Result{Success: true, ReturnCode: CodeOK, Output: body}, nil
	}
	cmdErr := &CommandError{Cmd: cmd.name(), ReturnCode: -1, Text: body}
	return &Result{ReturnCode: -1, ErrorText: body}, cmdErr
}

func (c *Client) parseJSON(cmd Command, status int, body string) (*Result, error) {
	if status < 400 && json.Valid([]byte(body)) {
		return &Result{Success: true, ReturnCode: CodeOK, Data: json.RawMessage(body)}, nil
	}

	code := -1
	text := body
	if n, err := strconv.Atoi(body); err == nil {
		code = n
		text = codeText(n)
	}
	cmdErr := &CommandError{Cmd: cmd.name(), ReturnCode: code, Text: text}
	return &Result{ReturnCode: code, ErrorText: text, Output: body}, cmdErr
}
