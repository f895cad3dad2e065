package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// Kind classifies an Error so callers can branch on the failure category
// without inspecting messages.
type Kind string

const (
	KindInternal       Kind = "internal"
	KindCatalogFetch   Kind = "catalog_fetch"
	KindInitialization Kind = "initialization"
	KindModelExchange  Kind = "model_exchange"
	KindRedis          Kind = "redis"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindBadRequest     Kind = "bad_request"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// CatalogFetchMessage prefixes product catalog read failures.
	CatalogFetchMessage = "catalog fetch failed"
	// InitializationMessage prefixes fatal start-up failures.
	InitializationMessage = "initialization failed"
	// ModelExchangeMessage prefixes completion endpoint failures.
	ModelExchangeMessage = "model exchange failed"
)

// Sentinels for errors.Is. Matching is done on Kind only.
var (
	ErrCatalogFetch   = &Error{Kind: KindCatalogFetch, Message: CatalogFetchMessage}
	ErrInitialization = &Error{Kind: KindInitialization, Message: InitializationMessage}
	ErrModelExchange  = &Error{Kind: KindModelExchange, Message: ModelExchangeMessage}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict       = &Error{Kind: KindConflict, Message: "conflict"}
	ErrBadRequest     = &Error{Kind: KindBadRequest, Message: "bad request"}
)

// Error wraps an underlying error with a kind, an HTTP status and a safe message.
type Error struct {
	Err     error
	Kind    Kind
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind != "" && t.Kind == e.Kind
}

// New creates a new internal Error with the provided information.
func New(err error, status int, message string) *Error {
	return &Error{
		Err:     err,
		Kind:    KindInternal,
		Status:  status,
		Message: message,
	}
}

func wrap(err error, kind Kind, status int, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Err: err, Kind: kind, Status: status, Message: message}
}

// WrapCatalog marks err as a product catalog read failure.
func WrapCatalog(err error) *Error {
	return wrap(err, KindCatalogFetch, http.StatusBadGateway, CatalogFetchMessage)
}

// WrapInit marks err as a fatal start-up failure.
func WrapInit(err error) *Error {
	return wrap(err, KindInitialization, http.StatusInternalServerError, InitializationMessage)
}

// WrapModel marks err as a completion endpoint failure. Errors that are
// already classified keep their kind.
func WrapModel(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return wrap(err, KindModelExchange, http.StatusBadGateway, ModelExchangeMessage)
}

// WrapRedis maps Redis errors to the unified Error type with appropriate status codes.
func WrapRedis(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return wrap(err, KindNotFound, http.StatusNotFound, RedisNotFoundMessage)
	}
	return wrap(err, KindRedis, http.StatusBadGateway, RedisErrorMessage)
}

// NotFound reports a missing resource.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a request that clashes with the current state.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// BadRequest reports invalid input.
func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// StatusOf returns the HTTP status carried by err, or 500 when err is unclassified.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
