package adapters

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	labsql "github.com/canonica-labs/identlab/internal/sql"
)

// Stable driver codes recorded in the query log and the probe report.
const (
	CodeUndefinedColumn = "undefined_column"
	CodeUndefinedTable  = "undefined_table"
	CodeSyntaxError     = "syntax_error"
	CodeColumnCount     = "column_count"
	CodeBindMismatch    = "bind_mismatch"
	CodeAccessDenied    = "access_denied"
	CodeUnknown         = "unknown"
)

var mysqlCodes = map[uint16]string{
	1045: CodeAccessDenied,
	1054: CodeUndefinedColumn,
	1064: CodeSyntaxError,
	1146: CodeUndefinedTable,
	1222: CodeColumnCount,
	1241: CodeColumnCount,
}

var pqCodes = map[pq.ErrorCode]string{
	"28P01": CodeAccessDenied,
	"28000": CodeAccessDenied,
	"42703": CodeUndefinedColumn,
	"42601": CodeSyntaxError,
	"42P01": CodeUndefinedTable,
}

// SQLite and DuckDB only expose message text.
var messageCodes = []struct {
	fragment string
	code     string
}{
	{"no such column", CodeUndefinedColumn},
	{"referenced column", CodeUndefinedColumn},
	{"column not found", CodeUndefinedColumn},
	{"no such table", CodeUndefinedTable},
	{"table with name", CodeUndefinedTable},
	{"syntax error", CodeSyntaxError},
	{"unrecognized token", CodeSyntaxError},
	{"incomplete input", CodeSyntaxError},
	{"destination arguments", CodeColumnCount},
	{"do not have the same number of result columns", CodeColumnCount},
	{"same number of columns", CodeColumnCount},
}

// DriverCode maps a driver error to one of the stable codes above.
// Unmapped MySQL and PostgreSQL errors keep their native number.
func DriverCode(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, labsql.ErrPlaceholderMismatch) {
		return CodeBindMismatch
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		if code, ok := mysqlCodes[me.Number]; ok {
			return code
		}
		return "mysql_" + strconv.Itoa(int(me.Number))
	}

	var pe *pq.Error
	if errors.As(err, &pe) {
		if code, ok := pqCodes[pe.Code]; ok {
			return code
		}
		return "pg_" + string(pe.Code)
	}

	msg := strings.ToLower(err.Error())
	for _, m := range messageCodes {
		if strings.Contains(msg, m.fragment) {
			return m.code
		}
	}
	return CodeUnknown
}
