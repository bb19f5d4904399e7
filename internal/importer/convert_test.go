package importer

import (
	"testing"
	"time"

	"fiscal-sentinel/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"4.50", "4.5"},
		{"$31.20", "31.2"},
		{"1,234.56", "1234.56"},
		{"€99", "99"},
		{"(12.00)", "-12"},
		{"-7.5", "-7.5"},
		{" 10 ", "10"},
	}

	for _, tt := range tests {
		amount, err := ParseAmount(tt.raw)
		require.NoError(t, err, tt.raw)
		require.True(t, amount.Equal(decimal.RequireFromString(tt.want)), tt.raw)
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	_, err := ParseAmount("")
	require.ErrorIs(t, err, ErrNoAmount)

	_, err = ParseAmount("abc")
	require.Error(t, err)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2024-10-01", "2024-10-01"},
		{"10/02/2024", "2024-10-02"},
		{"02.01.2024", "2024-01-02"},
		{"Jan 2, 2024", "2024-01-02"},
		{"2024/10/01", "2024-10-01"},
	}

	for _, tt := range tests {
		date, err := ParseDate(tt.raw)
		require.NoError(t, err, tt.raw)
		require.Equal(t, tt.want, date.Format("2006-01-02"), tt.raw)
	}

	_, err := ParseDate("yesterday")
	require.ErrorIs(t, err, ErrBadDate)
}

func TestValidateMapping(t *testing.T) {
	columns := []string{"Date", "Desc", "Amt"}

	require.NoError(t, ValidateMapping(map[string]string{
		"date": "Date", "merchant": "Desc", "amount": "Amt", "category": "",
	}, columns))

	err := ValidateMapping(map[string]string{"memo": "Desc"}, columns)
	require.ErrorIs(t, err, ErrInvalidField)

	err = ValidateMapping(map[string]string{"date": "Posted"}, columns)
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestConvert(t *testing.T) {
	parsed := &Parsed{
		Columns: []string{"Date", "Desc", "Amt", "Tag"},
		Rows: []map[string]string{
			{"Date": "2024-10-01", "Desc": "Coffee", "Amt": "4.50", "Tag": "Food"},
			{"Date": "2024-10-02", "Desc": "Metro", "Amt": "(2.75)", "Tag": "transport"},
			{"Date": "2024-10-03", "Desc": "Mystery", "Amt": "", "Tag": ""},
		},
	}

	records := Convert(parsed, map[string]string{
		"date": "Date", "merchant": "Desc", "amount": "Amt", "category": "Tag",
	})

	// The row without an amount is dropped
	require.Len(t, records, 2)

	require.Equal(t, "Coffee", records[0].Merchant)
	require.True(t, records[0].Amount.Equal(decimal.RequireFromString("4.5")))
	require.Equal(t, models.CategoryFood, records[0].Category)
	require.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), records[0].Date)

	require.True(t, records[1].Amount.IsNegative())
	require.Equal(t, models.CategoryTransport, records[1].Category)
}

func TestConvertFillsEmptyMappingFromSuggestion(t *testing.T) {
	parsed := &Parsed{
		Columns: []string{"Date", "Desc", "Amt"},
		Rows: []map[string]string{
			{"Date": "2024-10-01", "Desc": "Coffee", "Amt": "4.50"},
		},
	}

	// All slots empty: auto-detect resolves them from the headers
	records := Convert(parsed, map[string]string{})
	require.Len(t, records, 1)
	require.Equal(t, "Coffee", records[0].Merchant)
	require.Equal(t, models.CategoryOther, records[0].Category)
}

func TestConvertUnparsableDateDefaultsToToday(t *testing.T) {
	parsed := &Parsed{
		Columns: []string{"Date", "Amt"},
		Rows: []map[string]string{
			{"Date": "soon", "Amt": "5"},
		},
	}

	records := Convert(parsed, map[string]string{"date": "Date", "amount": "Amt"})
	require.Len(t, records, 1)
	require.Equal(t, time.Now().UTC().Truncate(24*time.Hour), records[0].Date)
}

func TestNormalizeCategory(t *testing.T) {
	require.Equal(t, models.CategoryFood, normalizeCategory(" Food "))
	require.Equal(t, models.CategorySubscriptions, normalizeCategory("subscriptions"))
	require.Equal(t, models.CategoryOther, normalizeCategory("exotic"))
	require.Equal(t, models.CategoryOther, normalizeCategory(""))
}
