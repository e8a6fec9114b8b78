package repository

import (
	"errors"
	"strings"

	"github.com/BaSui01/eventually/types"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE 完整性约束错误码
const (
	pgErrNotNullViolation    = "23502"
	pgErrForeignKeyViolation = "23503"
	pgErrUniqueViolation     = "23505"
)

// MySQL 错误号
const (
	myErrDuplicateEntry  = 1062
	myErrBadNull         = 1048
	myErrNoReferencedRow = 1452
	myErrRowIsReferenced = 1451
)

// mapError 将驱动错误归一为 CONFLICT / VALIDATION_ERROR，其余原样返回
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *types.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return types.NewConflictError("unique constraint violated", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return types.NewConflictError("foreign key constraint violated", err)
	case errors.Is(err, gorm.ErrMissingWhereClause):
		return types.NewValidationError("filters are required for bulk operations")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return types.NewConflictError("unique constraint violated", err).
				WithDetail("constraint", pgErr.ConstraintName)
		case pgErrForeignKeyViolation:
			return types.NewConflictError("foreign key constraint violated", err).
				WithDetail("constraint", pgErr.ConstraintName)
		case pgErrNotNullViolation:
			return types.NewValidationError("required field is missing").
				WithDetail("field", pgErr.ColumnName).
				WithCause(err)
		}
	}

	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case myErrDuplicateEntry:
			return types.NewConflictError("unique constraint violated", err)
		case myErrNoReferencedRow, myErrRowIsReferenced:
			return types.NewConflictError("foreign key constraint violated", err)
		case myErrBadNull:
			return types.NewValidationError("required field is missing").WithCause(err)
		}
	}

	// sqlite 驱动只暴露错误文本
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return types.NewConflictError("unique constraint violated", err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return types.NewConflictError("foreign key constraint violated", err)
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return types.NewValidationError("required field is missing").WithCause(err)
	}

	return err
}
