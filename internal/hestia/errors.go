package hestia

import (
	"errors"
	"fmt"
)

// ErrTransport marks connectivity-level failures (refused connection,
// TLS errors, timeouts). These are distinct from the panel rejecting a
// command, which yields a *CommandError.
var ErrTransport = errors.New("panel unreachable")

// Panel return codes. Zero is success; the rest follow the control
// panel's exit-code table. Only the codes callers branch on are named.
const (
	CodeOK        = 0
	CodeArgs      = 1
	CodeInvalid   = 2
	CodeNotExist  = 3
	CodeExists    = 4
	CodePassword  = 5
	CodeForbidden = 6
	CodeDisabled  = 7
)

// CommandError is an application-level failure: the panel accepted the
// request but the command itself failed.
type CommandError struct {
	Cmd        string
	ReturnCode int
	Text       string
}

func (e *CommandError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("%s failed: %s (code %d)", e.Cmd, e.Text, e.ReturnCode)
	}
	return fmt.Sprintf("%s failed with code %d", e.Cmd, e.ReturnCode)
}

// Forbidden reports whether the panel refused the command for
// authorization reasons. Callers surface this separately so operators
// can be told to whitelist this server's IP on the panel.
func (e *CommandError) Forbidden() bool {
	return e.ReturnCode == CodeForbidden || e.ReturnCode == CodePassword
}

func codeText(code int) string {
	switch code {
	case CodeArgs:
		return "not enough arguments"
	case CodeInvalid:
		return "invalid argument"
	case CodeNotExist:
		return "object does not exist"
	case CodeExists:
		return "object already exists"
	case CodePassword:
		return "authentication rejected"
	case CodeForbidden:
		return "operation forbidden"
	case CodeDisabled:
		return "object is suspended"
	default:
		return ""
	}
}
