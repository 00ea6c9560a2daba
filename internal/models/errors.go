package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type AuthError struct {
	Msg string
	Err error
}

func (e AuthError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "unauthorized"
}

func (e AuthError) Unwrap() error { return e.Err }

type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "forbidden"
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// UpstreamError wraps a failure reported by the record store or the identity
// provider. Correctable is set when the failure was caused by the caller's
// input (constraint or data exceptions) rather than by the service itself.
type UpstreamError struct {
	Op          string
	Code        string
	Correctable bool
	Err         error
}

func (e UpstreamError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }

// PublicMessage describes a correctable failure without the store's own text.
func (e UpstreamError) PublicMessage() string {
	switch {
	case e.Code == "23505":
		return "A record with these values already exists"
	case e.Code == "23503":
		return "Referenced record does not exist"
	case e.Code == "23502":
		return "A required value is missing"
	case strings.HasPrefix(e.Code, "22"):
		return "Invalid value in request"
	default:
		return "The request conflicts with existing data"
	}
}

// postgrest-go reports failures as "(<code>) <message>".
var postgrestCode = regexp.MustCompile(`^\(([0-9A-Z]+)\)`)

// upstream classifies an error from the record store. SQLSTATE classes 22
// (data exception) and 23 (integrity violation) are the caller's fault.
func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	ue := UpstreamError{Op: op, Err: err}
	if m := postgrestCode.FindStringSubmatch(err.Error()); m != nil {
		ue.Code = m[1]
		if len(ue.Code) == 5 && (ue.Code[:2] == "22" || ue.Code[:2] == "23") {
			ue.Correctable = true
		}
	}
	return ue
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsAuth(err error) bool {
	var target AuthError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

// AsUpstream reports whether err carries an UpstreamError and returns it.
func AsUpstream(err error) (UpstreamError, bool) {
	var target UpstreamError
	ok := errors.As(err, &target)
	return target, ok
}
