package service

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/errcode"
)

// Kind groups failures by how a transport should report them.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindState
	KindUnauthenticated
	KindUpstream
)

// CodedError is a domain failure carrying its stable API code. Two
// CodedErrors match under errors.Is when their codes are equal, so wrapped
// causes still compare against the sentinels below.
type CodedError struct {
	Kind Kind
	Code errcode.Code
	msg  string
	err  error
}

func (e *CodedError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *CodedError) Unwrap() error { return e.err }

func (e *CodedError) Is(target error) bool {
	t, ok := target.(*CodedError)
	return ok && t.Code == e.Code
}

func coded(kind Kind, code errcode.Code, msg string) *CodedError {
	return &CodedError{Kind: kind, Code: code, msg: msg}
}

var (
	ErrAdminNotFound          = coded(KindNotFound, errcode.AdminNotFound, "admin not found")
	ErrActivationCodeMissing  = coded(KindNotFound, errcode.ActivationCodeMissing, "activation code missing or expired")
	ErrActivationCodeMismatch = coded(KindConflict, errcode.ActivationCodeMismatch, "activation code mismatch")
	ErrWrongPassword          = coded(KindConflict, errcode.WrongPassword, "wrong password")
	ErrNotEnabled             = coded(KindState, errcode.NotEnabled, "admin not enabled")
	ErrEmailTaken             = coded(KindConflict, errcode.EmailTaken, "email already registered")
	ErrUnauthenticated        = coded(KindUnauthenticated, errcode.Unauthenticated, "unauthenticated")
	ErrSessionUnavailable     = coded(KindUpstream, errcode.CacheUnavailable, "session cache unavailable")
	ErrStorage                = coded(KindUpstream, errcode.StorageFailure, "storage failure")
)

func storageError(err error) error {
	return &CodedError{Kind: KindUpstream, Code: errcode.StorageFailure, msg: "storage failure", err: err}
}

// ValidationError reports rejected input fields. Code is the code of the
// first offending field in name order.
type ValidationError struct {
	Code   errcode.Code
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := e.fieldNames()
	if len(names) == 0 {
		return "validation failed"
	}
	return "validation failed: " + names[0] + ": " + e.Fields[names[0]]
}

func (e *ValidationError) fieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var fieldCodes = map[string]errcode.Code{
	"phone":      errcode.InvalidPhone,
	"email":      errcode.InvalidEmail,
	"admin_name": errcode.MissingName,
	"password":   errcode.MissingPassword,
}

// NewValidationError converts an ozzo-validation result. Errors that are not
// per-field are reported under the generic validation code.
func NewValidationError(err error) *ValidationError {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return &ValidationError{Code: errcode.Validation, Fields: map[string]string{"request": err.Error()}}
	}
	ve := &ValidationError{Code: errcode.Validation, Fields: make(map[string]string, len(fields))}
	for name, fe := range fields {
		ve.Fields[name] = fe.Error()
	}
	if names := ve.fieldNames(); len(names) > 0 {
		if c, ok := fieldCodes[names[0]]; ok {
			ve.Code = c
		}
	}
	return ve
}
