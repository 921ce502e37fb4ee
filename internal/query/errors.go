package query

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// Kind discriminates query failures. The external surface is a single
// textual message, but the three classes stay distinct internally.
type Kind int

const (
	// KindConnection: the database could not be reached or authenticated.
	KindConnection Kind = iota + 1
	// KindOperation: the database accepted the connection but rejected
	// the query (bad filter syntax, unsupported operator, ...).
	KindOperation
	// KindInternal: any other fault during execution or normalization.
	KindInternal
)

// Error wraps a query failure with its classification. No failure is
// retried; every one is surfaced immediately.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConnection:
		return "failed to connect to MongoDB: " + e.Err.Error()
	case KindOperation:
		return "MongoDB operation failed: " + e.Err.Error()
	default:
		return "query execution failed: " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or zero when err did not
// originate from the executor.
func KindOf(err error) Kind {
	var qerr *Error
	if errors.As(err, &qerr) {
		return qerr.Kind
	}
	return 0
}

// classify maps driver errors raised after a connection was established.
// Server-side rejections are operation errors; transport faults mid-query
// count as connection errors; everything else is unclassified.
func classify(err error) *Error {
	var srvErr mongo.ServerError
	switch {
	case errors.As(err, &srvErr):
		return &Error{Kind: KindOperation, Err: err}
	case mongo.IsNetworkError(err) || mongo.IsTimeout(err):
		return &Error{Kind: KindConnection, Err: err}
	default:
		return &Error{Kind: KindInternal, Err: err}
	}
}
