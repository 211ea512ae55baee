package hypervisor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Well-known VBoxManage result codes.
const (
	CodeObjectNotFound     = "VBOX_E_OBJECT_NOT_FOUND"
	CodeInvalidObjectState = "VBOX_E_INVALID_OBJECT_STATE"
	CodeObjectInUse        = "VBOX_E_OBJECT_IN_USE"
)

var (
	ErrUnsupportedDriver = errors.New("hypervisor: unsupported driver")
)

// ToolVersionError reports an installed tool that does not satisfy the
// minimum version, or whose version could not be read.
type ToolVersionError struct {
	Message string
}

func (e *ToolVersionError) Error() string { return e.Message }

// ToolError is a failed tool invocation. Code holds the result code the tool
// printed on stderr, or is empty when none was found.
type ToolError struct {
	Message string
	Code    string
	Err     error
}

func (e *ToolError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if e.Code != "" {
		return fmt.Sprintf("virtualbox: %s [%s]", msg, e.Code)
	}
	return "virtualbox: " + msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// HasCode reports whether err is a ToolError carrying code.
func HasCode(err error, code string) bool {
	var te *ToolError
	return errors.As(err, &te) && te.Code == code
}

var codePattern = regexp.MustCompile(`(?m)error: Details: code ([A-Z][A-Z0-9_]*)`)

// ExtractCode returns the first result code found in stderr, or "".
func ExtractCode(stderr string) string {
	m := codePattern.FindStringSubmatch(stderr)
	if m == nil {
		return ""
	}
	return m[1]
}
