package query

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed query for the transport layer.
type ErrorKind string

const (
	// KindInvalidQuery means the payload has no field usable for lookup.
	KindInvalidQuery ErrorKind = "invalid_query"

	// KindDataNotFound means the lookup ran and matched nothing.
	KindDataNotFound ErrorKind = "data_not_found"

	// KindInternal covers key derivation, envelope encoding and backend failures.
	KindInternal ErrorKind = "internal"
)

// Sentinels matched by errors.Is against any *QueryError of the same kind.
var (
	ErrInvalidQuery = errors.New("query has neither product_id nor product_display_name")
	ErrDataNotFound = errors.New("data not found")
	ErrInternal     = errors.New("internal error")
)

// QueryError is the error returned by Service.Handle.
type QueryError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query %s (%s): %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("query %s (%s)", e.Kind, e.Op)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *QueryError) Is(target error) bool {
	switch target {
	case ErrInvalidQuery:
		return e.Kind == KindInvalidQuery
	case ErrDataNotFound:
		return e.Kind == KindDataNotFound
	case ErrInternal:
		return e.Kind == KindInternal
	default:
		return false
	}
}

func invalidQuery() error {
	return &QueryError{Kind: KindInvalidQuery, Op: "validate", Err: ErrInvalidQuery}
}

func dataNotFound(policy Policy) error {
	return &QueryError{Kind: KindDataNotFound, Op: string(policy), Err: ErrDataNotFound}
}

func internal(op string, err error) error {
	return &QueryError{Kind: KindInternal, Op: op, Err: err}
}

// KindOf classifies err. Errors that are not a *QueryError are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to the status the query endpoint responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case "":
		return http.StatusOK
	case KindInvalidQuery:
		return http.StatusBadRequest
	case KindDataNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to show to a caller. Internal details
// stay in the logs.
func PublicMessage(err error) string {
	switch KindOf(err) {
	case KindInvalidQuery:
		return ErrInvalidQuery.Error()
	case KindDataNotFound:
		return "Data not found"
	default:
		return "Internal server error"
	}
}
