package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// driverConflict 按驱动错误码识别可整体重试的冲突
func driverConflict(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return true
		case sqlite3.ErrConstraint:
			return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
				liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01": // unique_violation, serialization_failure, deadlock_detected
			return true
		}
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062, 1213, 1205: // 重复键、死锁、锁等待超时
			return true
		}
	}
	return false
}
