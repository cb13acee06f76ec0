package library

import (
	"encoding/json"

	"github.com/joe/nexus-library/internal/catalog"
	liberrors "github.com/joe/nexus-library/pkg/errors"
)

// ResultStatus is the outcome of a workflow operation.
type ResultStatus string

// Outcomes.
const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// Result is what every workflow operation returns. A success may still carry
// non-fatal Errors.
type Result struct {
	Status  ResultStatus
	Item    *catalog.GameItem
	Details *Details
	Message string
	Err     error
	Errors  []string
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Kind returns the error kind of a failed result.
func (r Result) Kind() liberrors.Kind {
	return liberrors.KindOf(r.Err)
}

type resultError struct {
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type resultJSON struct {
	Status   ResultStatus      `json:"status"`
	GameItem *catalog.GameItem `json:"gameItem,omitempty"`
	Details  *Details          `json:"details,omitempty"`
	Error    *resultError      `json:"error,omitempty"`
}

// MarshalJSON renders {status, gameItem, error: {message, errors}}.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Status: r.Status, GameItem: r.Item, Details: r.Details}
	if r.Message != "" || len(r.Errors) > 0 {
		out.Error = &resultError{Message: r.Message, Errors: r.Errors}
	}

	return json.Marshal(out) //nolint:wrapcheck // plain struct encoding
}

func success(item *catalog.GameItem, errs []string) Result {
	return Result{Status: StatusSuccess, Item: item, Errors: errs}
}

func failure(item *catalog.GameItem, err error, errs ...string) Result {
	return Result{Status: StatusError, Item: item, Message: err.Error(), Err: err, Errors: errs}
}
