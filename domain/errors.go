package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated    = errors.New("no authenticated user")
	ErrForbidden          = errors.New("user is not a member of this pantry")
	ErrNoPantrySelected   = errors.New("no pantry selected")
	ErrNoActivePantry     = errors.New("no active pantry")
	ErrPantryNotFound     = errors.New("pantry not found")
	ErrLastMember         = errors.New("the last member cannot leave a pantry")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrJoinRequestNotFound   = errors.New("join request not found")
	ErrJoinRequestNotPending = errors.New("join request already answered")
	ErrAlreadyMember         = errors.New("user is already a member of this pantry")
	ErrDuplicateRequest      = errors.New("a pending join request already exists")

	ErrEventNotFound = errors.New("event not found")

	ErrFileAccess      = errors.New("receipt file could not be accessed")
	ErrTransport       = errors.New("receipt parser request failed")
	ErrInvalidResponse = errors.New("receipt parser returned an invalid response")
	ErrDecode          = errors.New("receipt parser response could not be decoded")
)

// FileAccessError is returned when a local file cannot be opened for upload.
type FileAccessError struct {
	Name string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot access %s: %v", e.Name, e.Err)
}

func (e *FileAccessError) Unwrap() []error { return []error{ErrFileAccess, e.Err} }

// HTTPError is a non-2xx answer from an external endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d from receipt parser", e.StatusCode)
}

func (e *HTTPError) Unwrap() error { return ErrTransport }

// DecodeError is returned when a parser response or a stored document does
// not match the expected schema.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// StatusCode maps a domain error to the HTTP status rendered to clients.
func StatusCode(err error) int {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrUserNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, ErrPantryNotFound),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrJoinRequestNotFound),
		errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrReceiptScanNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyMember),
		errors.Is(err, ErrDuplicateRequest),
		errors.Is(err, ErrJoinRequestNotPending),
		errors.Is(err, ErrEmailAlreadyExists),
		errors.Is(err, ErrReceiptAlreadySaved),
		errors.Is(err, ErrLastMember):
		return http.StatusConflict
	case errors.Is(err, ErrNoPantrySelected),
		errors.Is(err, ErrNoActivePantry),
		errors.Is(err, ErrReceiptNotProcessed):
		return http.StatusUnprocessableEntity
	case errors.As(err, &httpErr),
		errors.Is(err, ErrTransport),
		errors.Is(err, ErrInvalidResponse),
		errors.Is(err, ErrDecode):
		return http.StatusBadGateway
	case errors.Is(err, ErrFileAccess),
		errors.Is(err, ErrParseUUID),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidUnit),
		errors.Is(err, ErrInvalidExpiryDate),
		errors.Is(err, ErrInvalidLocation),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrInvalidImageFormat),
		errors.Is(err, ErrUnsupportedFileType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
