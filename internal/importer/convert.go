package importer

import (
	"errors"
	"strings"
	"time"

	"fiscal-sentinel/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNoAmount      = errors.New("no amount value")
	ErrBadDate       = errors.New("unrecognized date format")
	ErrInvalidField  = errors.New("unknown logical field")
	ErrUnknownColumn = errors.New("mapped column not present in file")
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006/01/02",
}

var amountCleaner = strings.NewReplacer(
	"$", "", "€", "", "£", "", "₽", "",
	",", "", " ", "", " ", "",
)

// Record is a parsed transaction row, ready for persistence.
type Record struct {
	Date     time.Time
	Merchant string
	Amount   decimal.Decimal
	Category models.TransactionCategory
	Notes    string
}

// ParseAmount converts a raw cell value into a decimal amount. Currency
// symbols and thousands separators are stripped; accounting-style
// parentheses mean a negative value.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = amountCleaner.Replace(cleaned)
	if cleaned == "" {
		return decimal.Zero, ErrNoAmount
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// ParseDate tries the known layouts in order.
func ParseDate(raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadDate
}

// ValidateMapping checks that the mapping keys are exactly the logical
// fields and every non-empty value names a real column.
func ValidateMapping(mapping map[string]string, columns []string) error {
	columnSet := make(map[string]bool, len(columns))
	for _, col := range columns {
		columnSet[col] = true
	}

	for field, column := range mapping {
		if !isLogicalField(field) {
			return ErrInvalidField
		}
		if column != "" && !columnSet[column] {
			return ErrUnknownColumn
		}
	}
	return nil
}

func isLogicalField(field string) bool {
	for _, f := range LogicalFields {
		if f == field {
			return true
		}
	}
	return false
}

// Convert turns parsed rows into transaction records using the resolved
// mapping. Empty mapping values fall back to the suggested mapping
// (auto-detect); rows without a parsable amount are skipped.
func Convert(parsed *Parsed, mapping map[string]string) []Record {
	resolved := resolveMapping(parsed, mapping)
	records := make([]Record, 0, len(parsed.Rows))

	for _, row := range parsed.Rows {
		amount, err := ParseAmount(row[resolved["amount"]])
		if err != nil {
			continue
		}

		record := Record{
			Merchant: row[resolved["merchant"]],
			Amount:   amount,
			Category: normalizeCategory(row[resolved["category"]]),
		}

		if date, err := ParseDate(row[resolved["date"]]); err == nil {
			record.Date = date
		} else {
			record.Date = time.Now().UTC().Truncate(24 * time.Hour)
		}

		records = append(records, record)
	}

	return records
}

// resolveMapping fills empty mapping slots from the header suggestion.
func resolveMapping(parsed *Parsed, mapping map[string]string) map[string]string {
	suggestion := SuggestMapping(parsed.Columns)
	resolved := make(map[string]string, len(LogicalFields))
	for _, field := range LogicalFields {
		if column := mapping[field]; column != "" {
			resolved[field] = column
		} else {
			resolved[field] = suggestion.Mapping[field]
		}
	}
	return resolved
}

func normalizeCategory(raw string) models.TransactionCategory {
	category := models.TransactionCategory(strings.ToLower(strings.TrimSpace(raw)))
	switch category {
	case models.CategoryFood, models.CategoryTransport, models.CategoryUtilities,
		models.CategoryShopping, models.CategoryEntertainment, models.CategoryHealthcare,
		models.CategoryEducation, models.CategorySubscriptions:
		return category
	default:
		return models.CategoryOther
	}
}
