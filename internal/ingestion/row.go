package ingestion

import (
	"fmt"

	"github.com/shiwake/reconciler/internal/domain"
)

// RowOutcome is the result of decoding one statement row. It is exactly one
// of ParsedRow, RowError or BlankRow.
type RowOutcome interface {
	isRowOutcome()
}

// ParsedRow carries a successfully decoded transaction.
type ParsedRow struct {
	Transaction domain.BankTransaction
}

// RowError rejects a single row. Line is the 1-based line in the file.
type RowError struct {
	Line    int
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("行 %d: %s", e.Line, e.Message)
}

// BlankRow is a row without a date; it is skipped silently.
type BlankRow struct{}

func (ParsedRow) isRowOutcome() {}
func (RowError) isRowOutcome()  {}
func (BlankRow) isRowOutcome()  {}
