// Package sqlerr specifically handles database driver errors.
//
// It parses cryptic SQLSTATE codes from the PostgreSQL driver and
// converts them into *errs.Error values with a Kind, a machine code
// and a readable message (e.g., converting a "foreign key violation"
// on orders into "The referenced user does not exist").
package sqlerr

import "fmt"

// Code is our own, smaller vocabulary for SQLSTATE codes.
type Code string

const (
	Other                     Code = "other"
	ForeignKeyViolation       Code = "foreign_key_violation"
	UniqueViolation           Code = "unique_violation"
	NotNullViolation          Code = "not_null_violation"
	CheckViolation            Code = "check_violation"
	InvalidTextRepresentation Code = "invalid_text_representation"
	NumericValueOutOfRange    Code = "numeric_value_out_of_range"
	UndefinedTable            Code = "undefined_table"
	UndefinedColumn           Code = "undefined_column"
	SyntaxError               Code = "syntax_error"
	InvalidPassword           Code = "invalid_password"
	InvalidCatalogName        Code = "invalid_catalog_name"
)

// MapCode maps a raw SQLSTATE to a Code.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
func MapCode(sqlState string) Code {
	switch sqlState {
	case "23503":
		return ForeignKeyViolation
	case "23505":
		return UniqueViolation
	case "23502":
		return NotNullViolation
	case "23514":
		return CheckViolation
	case "22P02":
		return InvalidTextRepresentation
	case "22003":
		return NumericValueOutOfRange
	case "42P01":
		return UndefinedTable
	case "42703":
		return UndefinedColumn
	case "42601":
		return SyntaxError
	case "28P01":
		return InvalidPassword
	case "3D000":
		return InvalidCatalogName
	default:
		return Other
	}
}

// Severity mirrors the severity field PostgreSQL attaches to every error.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// MapSeverity normalizes the severity string. Unknown values become SeverityError.
func MapSeverity(severity string) Severity {
	switch s := Severity(severity); s {
	case SeverityError, SeverityFatal, SeverityPanic, SeverityWarning,
		SeverityNotice, SeverityDebug, SeverityInfo, SeverityLog:
		return s
	default:
		return SeverityError
	}
}

// Error is the structured form of a PostgreSQL server error.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Severity, e.DatabaseCode, e.Message)
}

// Unwrap returns the original driver error.
func (e *Error) Unwrap() error {
	return e.driverErr
}
