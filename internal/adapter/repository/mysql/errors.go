package mysql

import (
	"context"
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/iho/corebanking/internal/domain"
)

// MySQL server error numbers the store translates.
const (
	errDupEntry         = 1062
	errLockWaitTimeout  = 1205
	errLockDeadlock     = 1213
	errQueryInterrupted = 1317
	errNoReferencedRow  = 1452
	errMaxExecutionTime = 3024
)

func translateError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}

	if domain.KindOf(err) != domain.KindUnknown {
		return err
	}

	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errDupEntry, errLockDeadlock:
			return domain.Conflict(op, err)
		case errLockWaitTimeout, errQueryInterrupted, errMaxExecutionTime:
			return domain.Timeout(op, err)
		case errNoReferencedRow:
			if notFound != nil {
				return notFound
			}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Timeout(op, err)
	}

	return domain.Persistence(op, err)
}
