// Package errs defines the failure kinds a resize run can report.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrDiscovery     = errors.New("discovery error")
	ErrProvisioning  = errors.New("provisioning error")
	ErrProbe         = errors.New("probe error")
	ErrRender        = errors.New("render error")
	ErrPublish       = errors.New("publish error")
)

// Error attaches a failure kind and the path it concerns to an underlying cause.
type Error struct {
	Kind error
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := e.Kind.Error()
	if e.Path != "" {
		s += ": " + e.Path
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Configf reports a caller configuration mistake.
func Configf(format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags err with kind and path. A nil err stays nil.
func Wrap(kind error, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Path: path, Err: err}
}
