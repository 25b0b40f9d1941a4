package domain

import (
	"errors"
	"fmt"
)

// ErrorCode names why a guard refused a mutation.
type ErrorCode string

const (
	CodeNotFound          ErrorCode = "NotFound"
	CodeForbidden         ErrorCode = "Forbidden"
	CodeDuplicateSlug     ErrorCode = "DuplicateSlug"
	CodeParentNotFound    ErrorCode = "ParentNotFound"
	CodeCircularReference ErrorCode = "CircularReference"
	CodeHasProducts       ErrorCode = "HasProducts"
	CodeHasChildren       ErrorCode = "HasChildren"
	CodeInvalidPrice      ErrorCode = "InvalidPrice"
	CodeInvalidDateRange  ErrorCode = "InvalidDateRange"
	CodeInvalidInput      ErrorCode = "InvalidInput"
)

// Sentinels for errors.Is against a Rejection of the matching code.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrDuplicateSlug     = errors.New("duplicate slug")
	ErrParentNotFound    = errors.New("parent not found")
	ErrCircularReference = errors.New("circular reference")
	ErrHasProducts       = errors.New("category has products")
	ErrHasChildren       = errors.New("category has children")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrInvalidInput      = errors.New("invalid input")
)

var sentinels = map[ErrorCode]error{
	CodeNotFound:          ErrNotFound,
	CodeForbidden:         ErrForbidden,
	CodeDuplicateSlug:     ErrDuplicateSlug,
	CodeParentNotFound:    ErrParentNotFound,
	CodeCircularReference: ErrCircularReference,
	CodeHasProducts:       ErrHasProducts,
	CodeHasChildren:       ErrHasChildren,
	CodeInvalidPrice:      ErrInvalidPrice,
	CodeInvalidDateRange:  ErrInvalidDateRange,
	CodeInvalidInput:      ErrInvalidInput,
}

// Rejection is a guard verdict refusing a mutation. Detail is operator-facing
// and may be shown verbatim in admin and vendor tools.
type Rejection struct {
	Code   ErrorCode
	Detail string
}

// Reject builds a Rejection with a formatted detail.
func Reject(code ErrorCode, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Detail: fmt.Sprintf(format, args...)}
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return string(r.Code)
	}
	return string(r.Code) + ": " + r.Detail
}

// Is matches the sentinel for r.Code and any Rejection with the same code.
func (r *Rejection) Is(target error) bool {
	if t, ok := target.(*Rejection); ok {
		return t.Code == r.Code
	}
	return sentinels[r.Code] == target
}

// CodeOf returns the code of the first Rejection in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Code, true
	}
	return "", false
}
