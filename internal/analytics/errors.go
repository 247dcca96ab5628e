package analytics

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/chanuka/disclosure-cli/internal/model"
)

// DataAccessError reports a repository or cache failure during an analysis.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return "failed to " + e.Op + ": " + e.Err.Error()
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the sponsor does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}

// wrapFetchError leaves not-found errors detectable and turns everything else
// into a DataAccessError naming the operation.
func wrapFetchError(op, sponsorID string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		return eris.Wrapf(err, "analytics: %s: sponsor %s", op, sponsorID)
	}
	return &DataAccessError{Op: op, Err: err}
}
