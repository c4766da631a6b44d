// internal/common/errors/database.go
package errors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
)

// FromQuery classifies a failed repository call. Deadlines become
// QUERY_TIMEOUT and lost connections DATABASE_CONNECTION_FAILED; everything
// else is QUERY_EXECUTION_FAILED.
func FromQuery(operation string, err error) *StandardError {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return NewQueryTimeoutError(operation)
	case stderrors.Is(err, sql.ErrConnDone), stderrors.Is(err, driver.ErrBadConn):
		return NewDatabaseConnectionFailedError(err)
	default:
		return NewQueryExecutionFailedError(operation, err)
	}
}
