package report

import (
	"fmt"

	"github.com/deppfellow/orders-report/internal/errs"
)

// Describe turns a failed run into the one-line message shown to the user.
//
// Connection and query failures are both database errors; the remaining
// kinds each get their own wording.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	switch errs.Classify(err) {
	case errs.KindConnection, errs.KindQuery:
		return fmt.Sprintf("A database error occurred: %v", err)
	case errs.KindData:
		return fmt.Sprintf("A data error occurred: %v", err)
	case errs.KindSystem:
		return fmt.Sprintf("A system error occurred: %v", err)
	default:
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
}
