// Package statement normalizes externally authored settlement statements
// before they reach the reconciliation matcher. Statement layouts are not
// fixed: column positions vary between banks, so headers are inferred by
// pattern-matching candidate names, and amounts arrive as free text with
// thousands separators and currency symbols.
package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyStatement indicates a statement with no usable data rows.
	ErrEmptyStatement = errors.New("statement has no data rows")
	// ErrNoReferenceColumn indicates that no header matched a settlement reference column.
	ErrNoReferenceColumn = errors.New("statement has no recognizable reference column")
	// ErrNoAmountColumn indicates that no header matched an amount column.
	ErrNoAmountColumn = errors.New("statement has no recognizable amount column")
)

var (
	referenceHeader = regexp.MustCompile(`(?i)(rrr|settlement|reference|ref\b|ref[ _.-]?no)`)
	amountHeader    = regexp.MustCompile(`(?i)(amount|amt|value|credit)`)
	receiptHeader   = regexp.MustCompile(`(?i)(receipt|teller)`)

	amountJunk = regexp.MustCompile(`[,\s]|₦|NGN`)
)

// columns maps the inferred header positions of a statement.
type columns struct {
	reference int
	amount    int
	receipt   int
}

// Parse reads a CSV settlement statement and returns normalized rows for the
// matcher. RowIndex is 1-based over the data rows (the header excluded).
func Parse(r io.Reader) ([]domain.StatementRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyStatement
	}

	cols, err := inferColumns(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]domain.StatementRow, 0, len(records)-1)
	for i, record := range records[1:] {
		reference := field(record, cols.reference)
		rawAmount := field(record, cols.amount)
		if reference == "" && rawAmount == "" {
			continue // blank filler row
		}

		amount, err := CoerceAmount(rawAmount)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		rows = append(rows, domain.StatementRow{
			RowIndex:   i + 1,
			Reference:  reference,
			Amount:     amount,
			ReceiptRef: field(record, cols.receipt),
		})
	}
	if len(rows) == 0 {
		return nil, ErrEmptyStatement
	}
	return rows, nil
}

// inferColumns matches the header row against the candidate patterns. The
// first header matching each pattern wins; reference and amount are required.
func inferColumns(header []string) (columns, error) {
	cols := columns{reference: -1, amount: -1, receipt: -1}
	for i, raw := range header {
		h := strings.TrimSpace(raw)
		switch {
		case cols.reference < 0 && referenceHeader.MatchString(h):
			cols.reference = i
		case cols.amount < 0 && amountHeader.MatchString(h):
			cols.amount = i
		case cols.receipt < 0 && receiptHeader.MatchString(h):
			cols.receipt = i
		}
	}
	if cols.reference < 0 {
		return cols, ErrNoReferenceColumn
	}
	if cols.amount < 0 {
		return cols, ErrNoAmountColumn
	}
	return cols, nil
}

// CoerceAmount turns a free-text statement amount into a decimal, stripping
// thousands separators, whitespace and currency markers.
func CoerceAmount(raw string) (decimal.Decimal, error) {
	cleaned := amountJunk.ReplaceAllString(raw, "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unreadable amount %q", raw)
	}
	return amount, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
