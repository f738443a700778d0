package repository

import (
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestDriverConflict(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"sqlite唯一约束", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"sqlite外键约束", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, false},
		{"sqlite忙", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"postgres序列化失败", &pgconn.PgError{Code: "40001"}, true},
		{"postgres语法错误", &pgconn.PgError{Code: "42601"}, false},
		{"mysql重复键", &mysql.MySQLError{Number: 1062}, true},
		{"包装后的mysql死锁", fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1213}), true},
		{"mysql表不存在", &mysql.MySQLError{Number: 1146}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, driverConflict(tc.err))
		})
	}
}
