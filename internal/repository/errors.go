package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrIndexRequired marks store failures that need operator action (a
	// missing relation, column or index after a skipped migration) as opposed
	// to transient backend errors.
	ErrIndexRequired = errors.New("store schema out of date, migration required")
)

// classifyStoreErr separates schema-level Postgres failures from generic ones
// so callers can show an actionable message instead of a plain retry prompt.
func classifyStoreErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "42" {
		return fmt.Errorf("%w: %s", ErrIndexRequired, pqErr.Message)
	}
	return err
}
