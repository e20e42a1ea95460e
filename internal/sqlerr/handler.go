package sqlerr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/orders-report/internal/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var uniqueKeyPattern = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// ErrCode reports the mapped sqlerr.Code for a given error.
//
// Behavior:
//   - If err can be unwrapped into *sqlerr.Error, return its Code.
//   - If err can be unwrapped into *pgconn.PgError, map its SQLSTATE.
//   - Otherwise return sqlerr.Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return MapCode(pgErr.Code)
	}
	return Other
}

// ConvertPgError converts a pgconn.PgError (raw Postgres error) into our custom sqlerr.Error.
//
// pgconn.PgError contains Postgres-specific fields like:
//   - Code (SQLSTATE)
//   - Severity
//   - TableName/ColumnName/ConstraintName etc.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// generateErrorCode creates consistent machine codes from DB errors.
//
// Output format:
//
//	<DOMAIN>_<ACTION>
//
// Example:
//
//	orders.user_id + ForeignKeyViolation => USER_NOT_FOUND
//	users + UniqueViolation              => USER_ALREADY_EXISTS
func generateErrorCode(sqlErr *Error) string {
	domain := strings.ToUpper(strings.ReplaceAll(getEntityName(sqlErr), " ", "_"))

	action := "ERROR"
	switch sqlErr.Code {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation, InvalidTextRepresentation, NumericValueOutOfRange:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// formatUserFriendlyMessage produces a message fit for the report output.
func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation:
		if column := extractColumnForUniqueViolation(sqlErr.ConstraintName); column != "" {
			return fmt.Sprintf("A %s with this %s already exists", entityName, humanizeText(column))
		}
		return fmt.Sprintf("A %s with this identifier already exists", entityName)

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		if fieldName := humanizeText(sqlErr.ColumnName); fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	case InvalidTextRepresentation, NumericValueOutOfRange:
		return "A value could not be stored: " + sqlErr.Message

	case UndefinedTable, UndefinedColumn:
		return "The database schema is missing: " + sqlErr.Message

	default:
		return sqlErr.Message
	}
}

// getEntityName tries to infer an entity name from table/column data.
//
// Priority rules:
//  1. For foreign key violations the referencing column names the
//     referenced entity ("user_id" -> "User"). PostgreSQL leaves ColumnName
//     empty for those, so the column is recovered from the constraint name.
//  2. Otherwise use the table name, singularized if it ends with "s".
//  3. Otherwise fallback to "record".
func getEntityName(sqlErr *Error) string {
	if sqlErr.Code == ForeignKeyViolation {
		column := sqlErr.ColumnName
		if column == "" {
			column = extractColumnForForeignKey(sqlErr.TableName, sqlErr.ConstraintName)
		}
		if strings.HasSuffix(strings.ToLower(column), "_id") {
			return humanizeText(strings.TrimSuffix(strings.ToLower(column), "_id"))
		}
	}

	if sqlErr.TableName != "" {
		entity := sqlErr.TableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

// extractColumnForForeignKey reads the column out of PostgreSQL's default
// foreign key name "<table>_<column>_fkey" (orders_user_id_fkey -> user_id).
func extractColumnForForeignKey(tableName, constraintName string) string {
	if !strings.HasSuffix(constraintName, "_fkey") {
		return ""
	}
	column := strings.TrimSuffix(constraintName, "_fkey")
	if tableName != "" {
		column = strings.TrimPrefix(column, tableName+"_")
	}
	return column
}

// humanizeText converts snake_case into Title Case ("first_name" -> "First Name").
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// extractColumnForUniqueViolation tries to infer the column name from a unique constraint name.
//
// It supports two conventions:
//
//  1. "unique_<table>_<column>"
//     Example: unique_users_email -> "email"
//
//  2. "<table>_<column>_(key|ukey)"
//     Example: users_email_key -> "email"
func extractColumnForUniqueViolation(constraintName string) string {
	if constraintName == "" {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	if matches := uniqueKeyPattern.FindStringSubmatch(constraintName); len(matches) > 1 {
		return matches[1]
	}

	return ""
}

// HandleError converts a low-level database error into an *errs.Error.
//
// op names the driver operation that failed ("add_user", "connect", ...).
//
// Output:
//   - nil stays nil
//   - an *errs.Error is returned unchanged
//   - a pgconn.ConnectError becomes KindConnection
//   - a pgconn.PgError becomes KindData (SQLSTATE class 22) or KindQuery,
//     with a generated Code and a readable Message
//   - errors the OS is responsible for keep their classification (KindSystem)
//   - anything else coming out of the driver is a KindQuery failure
func HandleError(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *errs.Error
	if errors.As(err, &appErr) {
		return err
	}

	// ConnectError first: authentication failures arrive as a PgError
	// wrapped inside a ConnectError, and they are still connection failures.
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return HandleConnectError(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		sqlErr := ConvertPgError(pgErr)
		kind := errs.KindQuery
		if strings.HasPrefix(sqlErr.DatabaseCode, "22") {
			kind = errs.KindData
		}
		return &errs.Error{
			Kind:    kind,
			Op:      op,
			Code:    generateErrorCode(sqlErr),
			Message: formatUserFriendlyMessage(sqlErr),
			Err:     sqlErr,
		}
	}

	if errs.Classify(err) == errs.KindSystem {
		return &errs.Error{Kind: errs.KindSystem, Op: op, Err: err}
	}

	return &errs.Error{Kind: errs.KindQuery, Op: op, Err: err}
}

// HandleConnectError converts a failure to establish a connection.
//
// The result is always KindConnection, whatever the cause. When the server
// itself refused the session, the SQLSTATE it sent is kept as the Code:
//
//	28P01 -> AUTHENTICATION_FAILED
//	3D000 -> DATABASE_NOT_FOUND
func HandleConnectError(err error) error {
	if err == nil {
		return nil
	}

	connErr := &errs.Error{Kind: errs.KindConnection, Op: "connect", Err: err}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch MapCode(pgErr.Code) {
		case InvalidPassword:
			connErr.Code = "AUTHENTICATION_FAILED"
			connErr.Message = "Authentication failed: " + pgErr.Message
		case InvalidCatalogName:
			connErr.Code = "DATABASE_NOT_FOUND"
			connErr.Message = "The database does not exist: " + pgErr.Message
		}
	}

	return connErr
}
