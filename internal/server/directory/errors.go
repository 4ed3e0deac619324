package directory

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/go-ldap/ldap/v3"
)

// Error is an infrastructure failure talking to the directory: unreachable
// host, TLS failure, timeout, or any result code the client does not
// interpret. It matches common.ErrDirectory via errors.Is.
type Error struct {
	Op          string
	Description string
	Err         error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("directory %s: %s", e.Op, e.Description)
	}
	return fmt.Sprintf("directory %s: %s: %v", e.Op, e.Description, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == common.ErrDirectory
}

// resultCode extracts the LDAP result code from err, if it carries one.
func resultCode(err error) (uint16, bool) {
	var lerr *ldap.Error
	if errors.As(err, &lerr) {
		return lerr.ResultCode, true
	}
	return 0, false
}

// hasResultCode reports whether err is an LDAP result with the given code.
func hasResultCode(err error, code uint16) bool {
	c, ok := resultCode(err)
	return ok && c == code
}

// wrap converts a failed operation into an *Error whose description is the
// directory's result name ("Invalid Credentials", "Busy", ...) when known.
func wrap(op string, err error) error {
	desc := "unexpected failure"
	if code, ok := resultCode(err); ok {
		if name, known := ldap.LDAPResultCodeMap[code]; known {
			desc = name
		} else {
			desc = fmt.Sprintf("result code %d", code)
		}
	}
	return &Error{Op: op, Description: desc, Err: err}
}
