package memory

import (
	"fmt"
	"unicode/utf8"

	"garage-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// The checks below mirror the column types in postgres/schema.sql so that
// both stores refuse the same rows.

func checkVarchar(entity, column, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s %w: %s longer than %d characters", entity, domain.ErrInvalidInput, column, max)
	}
	return nil
}

func checkRef(entity string, ref *string) error {
	if ref == nil {
		return nil
	}
	return checkVarchar(entity, "reference_id", *ref, domain.MaxReferenceLength)
}

func checkNumeric(entity, column string, d, max decimal.Decimal) error {
	if d.Abs().GreaterThan(max) {
		return fmt.Errorf("%s %w: %s out of range", entity, domain.ErrInvalidInput, column)
	}
	return nil
}
